package memory

import "testing"

func TestBuildFTSQueryQuotesTokens(t *testing.T) {
	got := buildFTSQuery(`espresso "OR" mornings`)
	want := `"espresso" OR "OR" OR "mornings"`
	if got != want {
		t.Fatalf("buildFTSQuery = %q, want %q", got, want)
	}
}

func TestBuildFTSQueryStripsOperatorCharacters(t *testing.T) {
	got := buildFTSQuery(`a* AND-b (NOT c)`)
	for _, bad := range []string{"*", "(", ")"} {
		if containsRune(got, bad) {
			t.Fatalf("query %q still contains unsafe operator %q", got, bad)
		}
	}
}

func TestBuildFTSQueryEmptyInput(t *testing.T) {
	if got := buildFTSQuery("   "); got != "" {
		t.Fatalf("expected empty query for blank input, got %q", got)
	}
}

func TestReciprocalRankScoreDescending(t *testing.T) {
	if s := reciprocalRankScore(0); s != 1 {
		t.Fatalf("expected position 0 to score 1, got %v", s)
	}
	if s := reciprocalRankScore(1); s != 0.5 {
		t.Fatalf("expected position 1 to score 0.5, got %v", s)
	}
	if reciprocalRankScore(5) >= reciprocalRankScore(1) {
		t.Fatalf("expected score to decrease with position")
	}
}

func containsRune(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
