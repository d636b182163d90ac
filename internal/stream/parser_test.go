package stream

import "testing"

func TestParserEmitsSafeTextAndParsesEmotionTag(t *testing.T) {
	p := New()
	safe := p.Feed("Hello [EMOTION:happy|MOOD:0.8] world")

	if safe != "Hello  world" {
		t.Fatalf("expected tag stripped from safe text, got %q", safe)
	}

	res := p.Finish()
	if res.CleanText != "Hello  world" {
		t.Fatalf("unexpected clean text %q", res.CleanText)
	}
	if res.Emotion != "happy" || res.Mood != 0.8 {
		t.Fatalf("expected happy/0.8, got %q/%v", res.Emotion, res.Mood)
	}
}

func TestParserWithholdsTagSplitAcrossFeeds(t *testing.T) {
	p := New()
	first := p.Feed("I'll help [TOOL_CALL:get_")
	if first != "I'll help " {
		t.Fatalf("expected partial tag withheld, got safe=%q", first)
	}
	second := p.Feed("time][ACTION:nod]")
	if second != "" {
		t.Fatalf("expected no additional safe text from tag-only delta, got %q", second)
	}

	res := p.Finish()
	if res.CleanText != "I'll help" {
		t.Fatalf("expected clean text %q, got %q", "I'll help", res.CleanText)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Name != "get_time" {
		t.Fatalf("expected one get_time tool call, got %+v", res.ToolCalls)
	}
	if len(res.ToolCalls[0].Args) != 0 {
		t.Fatalf("expected empty args, got %+v", res.ToolCalls[0].Args)
	}
	if res.Action != "nod" {
		t.Fatalf("expected action nod, got %q", res.Action)
	}
}

func TestParserWithholdsBracketOneByteAtATime(t *testing.T) {
	p := New()
	var safe string
	for _, r := range "before [EMOTION:sad|MOOD:0.1] after" {
		safe += p.Feed(string(r))
	}
	if safe != "before  after" {
		t.Fatalf("expected incremental byte-by-byte feed to still withhold the tag, got %q", safe)
	}
	res := p.Finish()
	if res.Emotion != "sad" {
		t.Fatalf("expected sad, got %q", res.Emotion)
	}
}

func TestParserDiscardsUnknownEmotionAndAction(t *testing.T) {
	p := New()
	p.Feed("hi [EMOTION:ecstatic_overload|MOOD:0.9] there [ACTION:teleport]")
	res := p.Finish()
	if res.Action != "" {
		t.Fatalf("expected unknown action discarded, got %q", res.Action)
	}
	// unknown emotion name falls through to the keyword fallback rather
	// than surfacing the rejected tag value.
	if res.Emotion == "ecstatic_overload" {
		t.Fatalf("expected unknown emotion name rejected, got %q", res.Emotion)
	}
}

func TestParserFallsBackToKeywordClassifierWhenNoEmotionTag(t *testing.T) {
	p := New()
	p.Feed("That is wonderful, thank you so much!")
	res := p.Finish()
	if res.Emotion != "happy" && res.Emotion != "excited" {
		t.Fatalf("expected a positive fallback emotion, got %q", res.Emotion)
	}
}

func TestParserParsesToolCallArgsWithJSONCoercion(t *testing.T) {
	p := New()
	p.Feed(`[TOOL_CALL:set_timer|seconds=30|label="nap"|repeat=true]`)
	res := p.Finish()
	if len(res.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %d", len(res.ToolCalls))
	}
	call := res.ToolCalls[0]
	if call.Name != "set_timer" {
		t.Fatalf("expected set_timer, got %q", call.Name)
	}
	if v, _ := call.Args["seconds"].(float64); v != 30 {
		t.Fatalf("expected seconds=30 as float64, got %#v", call.Args["seconds"])
	}
	if v, _ := call.Args["label"].(string); v != "nap" {
		t.Fatalf("expected label=nap as string, got %#v", call.Args["label"])
	}
	if v, _ := call.Args["repeat"].(bool); v != true {
		t.Fatalf("expected repeat=true as bool, got %#v", call.Args["repeat"])
	}
}

func TestParserKeepsMultipleToolCallsInOrder(t *testing.T) {
	p := New()
	p.Feed("[TOOL_CALL:first][TOOL_CALL:second|x=1]")
	res := p.Finish()
	if len(res.ToolCalls) != 2 {
		t.Fatalf("expected two tool calls, got %d", len(res.ToolCalls))
	}
	if res.ToolCalls[0].Name != "first" || res.ToolCalls[1].Name != "second" {
		t.Fatalf("expected order preserved, got %+v", res.ToolCalls)
	}
}

func TestParserTreatsMalformedBracketAsPlainText(t *testing.T) {
	p := New()
	safe := p.Feed("array is [1, 2, 3] long")
	if safe != "array is [1, 2, 3] long" {
		t.Fatalf("expected non-tag brackets emitted verbatim, got %q", safe)
	}
}

func TestParserClampsMoodToUnitRange(t *testing.T) {
	p := New()
	p.Feed("[EMOTION:worried|MOOD:5.0]")
	res := p.Finish()
	if res.Mood != 1 {
		t.Fatalf("expected mood clamped to 1, got %v", res.Mood)
	}
}

func TestParserExtractsImagePromptAndTranslation(t *testing.T) {
	p := New()
	p.Feed("ok [IMAGE_PROMPT:a cozy cabin in the snow] [TRANSLATE:hola]")
	res := p.Finish()
	if res.ImagePrompt != "a cozy cabin in the snow" {
		t.Fatalf("unexpected image prompt %q", res.ImagePrompt)
	}
	if res.Translation != "hola" {
		t.Fatalf("unexpected translation %q", res.Translation)
	}
}
