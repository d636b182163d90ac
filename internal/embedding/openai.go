package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/wispcompanion/core/internal/httputil"
)

const (
	DefaultOpenAIBaseURL        = "https://api.openai.com/v1"
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

func NormalizeOpenAIModel(model string) string {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" {
		return DefaultOpenAIEmbeddingModel
	}
	if after, ok := strings.CutPrefix(trimmed, "openai/"); ok {
		return after
	}
	return trimmed
}

// NewOpenAIProvider builds a Provider backed by the OpenAI embeddings
// endpoint (or any OpenAI-compatible proxy reachable at baseURL).
func NewOpenAIProvider(apiKey, baseURL, model string, headers map[string]string) (Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai embeddings require api_key")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	opts = httputil.AppendHeaderOptions(opts, headers)
	opts = append(opts, option.WithBaseURL(baseURL))
	client := openai.NewClient(opts...)
	normalized := NormalizeOpenAIModel(model)

	embedBatch := func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}
		params := openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(normalized),
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		}
		resp, err := client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, err
		}
		out := make([][]float32, 0, len(resp.Data))
		for _, entry := range resp.Data {
			out = append(out, NormalizeEmbedding(toFloat32(entry.Embedding)))
		}
		return out, nil
	}

	return &closureProvider{
		id:    "openai",
		model: normalized,
		embedQuery: func(ctx context.Context, text string) ([]float32, error) {
			results, err := embedBatch(ctx, []string{text})
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return nil, nil
			}
			return results[0], nil
		},
		embedBatch: embedBatch,
	}, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
