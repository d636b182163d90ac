package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/wispcompanion/core/internal/config"
	"github.com/wispcompanion/core/internal/corerr"
)

// Oracle lazily constructs and caches the configured embedding backend.
// The first call to Embed or EmbedBatch performs construction; a failed
// construction is cached too, so a misconfigured backend (unknown
// provider, missing credentials) fails fast on every subsequent call.
// Construction makes no network request: an unreachable backend shows up
// as a transport error from each embed call, and that error is not
// cached.
type Oracle struct {
	cfg  config.EmbeddingConfig
	once sync.Once

	provider Provider
	loadErr  error
}

// NewOracle returns an Oracle for the given configuration. Construction
// of the underlying provider is deferred until first use.
func NewOracle(cfg config.EmbeddingConfig) *Oracle {
	return &Oracle{cfg: cfg}
}

func (o *Oracle) load() {
	o.once.Do(func() {
		p, err := newProviderFromConfig(o.cfg)
		if err != nil {
			o.loadErr = fmt.Errorf("%w: %v", corerr.ErrEmbedderUnavailable, err)
			return
		}
		o.provider = p
	})
}

// Embed returns the normalized embedding for a single query string.
func (o *Oracle) Embed(ctx context.Context, text string) ([]float32, error) {
	o.load()
	if o.loadErr != nil {
		return nil, o.loadErr
	}
	return o.provider.EmbedQuery(ctx, text)
}

// EmbedBatch embeds several documents in one round trip where the
// backend supports it.
func (o *Oracle) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	o.load()
	if o.loadErr != nil {
		return nil, o.loadErr
	}
	return o.provider.EmbedBatch(ctx, texts)
}

// Model reports the active backend's model identifier, empty if the
// provider has not been constructed yet or failed to load.
func (o *Oracle) Model() string {
	if o.provider == nil {
		return ""
	}
	return o.provider.Model()
}

func newProviderFromConfig(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Headers)
	case "gemini":
		return NewGeminiProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Headers)
	case "local":
		return NewLocalProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Headers)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
