package embedding

import "testing"

func TestNormalizeEmbeddingUnitLength(t *testing.T) {
	vec := NormalizeEmbedding([]float32{3, 4})
	got := float64(vec[0])*float64(vec[0]) + float64(vec[1])*float64(vec[1])
	if got < 0.999 || got > 1.001 {
		t.Fatalf("expected unit length, got squared magnitude %v", got)
	}
}

func TestNormalizeEmbeddingHandlesNaN(t *testing.T) {
	vec := NormalizeEmbedding([]float32{1, float32(nanFloat())})
	if vec[1] != 0 {
		t.Fatalf("expected NaN component zeroed, got %v", vec[1])
	}
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := NormalizeEmbedding([]float32{1, 2, 3})
	if sim := CosineSimilarity(v, v); sim < 0.999 {
		t.Fatalf("expected identical vectors to score ~1, got %v", sim)
	}
}

func TestCosineSimilarityMismatchedLength(t *testing.T) {
	if sim := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); sim != 0 {
		t.Fatalf("expected 0 for mismatched lengths, got %v", sim)
	}
}

func TestNormalizeOpenAIModelStripsPrefix(t *testing.T) {
	if got := NormalizeOpenAIModel("openai/text-embedding-3-small"); got != "text-embedding-3-small" {
		t.Fatalf("unexpected normalized model: %q", got)
	}
	if got := NormalizeOpenAIModel(""); got != DefaultOpenAIEmbeddingModel {
		t.Fatalf("expected default model, got %q", got)
	}
}

func TestNormalizeGeminiModelStripsPrefixes(t *testing.T) {
	cases := map[string]string{
		"models/gemini-embedding-001": "gemini-embedding-001",
		"gemini/gemini-embedding-001": "gemini-embedding-001",
		"google/gemini-embedding-001": "gemini-embedding-001",
		"":                            DefaultGeminiEmbeddingModel,
	}
	for in, want := range cases {
		if got := NormalizeGeminiModel(in); got != want {
			t.Fatalf("NormalizeGeminiModel(%q) = %q, want %q", in, got, want)
		}
	}
}
