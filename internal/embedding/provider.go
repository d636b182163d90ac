// Package embedding adapts three remote embedding backends behind one
// Provider shape, the way the teacher's memory embedding package does:
// closures over embedQuery/embedBatch hide the transport differences
// between OpenAI-compatible, Gemini, and locally-hosted endpoints.
package embedding

import (
	"context"
	"math"
)

// Provider embeds text into L2-normalized float32 vectors.
type Provider interface {
	ID() string
	Model() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type closureProvider struct {
	id         string
	model      string
	embedQuery func(ctx context.Context, text string) ([]float32, error)
	embedBatch func(ctx context.Context, texts []string) ([][]float32, error)
}

func (p *closureProvider) ID() string    { return p.id }
func (p *closureProvider) Model() string { return p.model }

func (p *closureProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if p.embedQuery == nil {
		return nil, nil
	}
	return p.embedQuery(ctx, text)
}

func (p *closureProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.embedBatch == nil {
		return nil, nil
	}
	return p.embedBatch(ctx, texts)
}

// NormalizeEmbedding L2-normalizes a vector in place semantics (returns a
// new slice), guarding against NaN/Inf components the way the teacher's
// embedding normalizer does for backends that occasionally emit them.
func NormalizeEmbedding(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sumSq float64
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		sumSq += f * f
	}
	if sumSq <= 0 {
		return vec
	}
	mag := math.Sqrt(sumSq)
	if mag < 1e-10 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			out[i] = 0
			continue
		}
		out[i] = float32(f / mag)
	}
	return out
}
