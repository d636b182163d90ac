package sentiment

import "testing"

func TestAnalyzeNeutralOnNoSignal(t *testing.T) {
	r := Analyze("the report is due on Tuesday")
	if r.Tone != ToneNeutral || r.Confidence != 0 {
		t.Fatalf("expected neutral with zero confidence, got %+v", r)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	r := Analyze("   ")
	if r.Tone != ToneNeutral || r.Mood != 0.5 {
		t.Fatalf("expected neutral default for blank input, got %+v", r)
	}
}

func TestAnalyzePositiveDominant(t *testing.T) {
	r := Analyze("This is great, thanks so much, I'm so happy!")
	if r.Tone != TonePositive && r.Tone != ToneExcited {
		t.Fatalf("expected a positive-leaning tone, got %v", r.Tone)
	}
	if r.Mood <= 0.5 {
		t.Fatalf("expected mood above neutral, got %v", r.Mood)
	}
}

func TestAnalyzeNegativeDominant(t *testing.T) {
	r := Analyze("This is terrible and I hate it, so upset")
	if r.Tone != ToneNegative {
		t.Fatalf("expected negative tone, got %v", r.Tone)
	}
	if r.Mood >= 0.5 {
		t.Fatalf("expected mood below neutral, got %v", r.Mood)
	}
}

func TestAnalyzeMixedSignalsPullsTowardNeutral(t *testing.T) {
	mixed := Analyze("I love this but I also hate that part")
	pure := Analyze("I love this and love that part too")
	if mixed.Mood <= 0.5 {
		t.Fatalf("expected mixed signal mood pulled toward neutral, got %v", mixed.Mood)
	}
	if mixed.Mood >= pure.Mood {
		t.Fatalf("expected mixed mood closer to neutral than a pure-positive message: mixed=%v pure=%v", mixed.Mood, pure.Mood)
	}
}

func TestAnalyzeQuestionTone(t *testing.T) {
	r := Analyze("why did this happen and how do we fix it?")
	if r.Tone != ToneQuestioning {
		t.Fatalf("expected questioning tone, got %v", r.Tone)
	}
}
