// Package config holds the ambient configuration knobs for the
// conversational core, loaded from YAML the way the teacher's connector
// config is (nested structs with yaml tags and WithDefaults helpers).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the core.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Memory    MemoryConfig    `yaml:"memory"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Proactive ProactiveConfig `yaml:"proactive"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type EmbeddingConfig struct {
	Provider      string            `yaml:"provider"` // openai, gemini, local
	Model         string            `yaml:"model"`
	BaseURL       string            `yaml:"base_url"`
	APIKey        string            `yaml:"api_key"`
	Headers       map[string]string `yaml:"headers"`
	LocalSnapshot string            `yaml:"local_snapshot_dir"`
}

type MemoryConfig struct {
	DedupThreshold   float64 `yaml:"dedup_threshold"`   // default 0.9
	DecayHalfLifeDay float64 `yaml:"decay_half_life_days"` // default 30
	Hybrid           HybridConfig `yaml:"hybrid"`
}

type HybridConfig struct {
	VectorWeight float64 `yaml:"vector_weight"` // default 0.65
	TextWeight   float64 `yaml:"text_weight"`   // default 0.35
}

// HeartbeatConfig configures the periodic tick loop. TickInterval answers
// spec.md §9's open question: the interval is a knob, defaulting to 10s.
type HeartbeatConfig struct {
	TickInterval          time.Duration `yaml:"tick_interval"`
	SnapshotEveryTicks     int          `yaml:"snapshot_every_ticks"`     // default 6 (~60s at 10s ticks)
	ProactiveCooldown      time.Duration `yaml:"proactive_cooldown"`      // default 600s
	ProactiveEnabled       bool          `yaml:"proactive_enabled"`
}

type PromptConfig struct {
	HistoryMessages  int `yaml:"history_messages"`   // default 10
	HistoryTokenBudget int `yaml:"history_token_budget"` // default 2000
	SummaryCount     int `yaml:"summary_count"`      // default 3
	MemoryResults    int `yaml:"memory_results"`     // default 5
}

type ProactiveConfig struct {
	MaxCuriosityItems int `yaml:"max_curiosity_items"` // default 10
}

// Default returns the configuration the core uses when no file is loaded,
// matching the concrete constants named throughout spec.md.
func Default() Config {
	return Config{
		Store: StoreConfig{Path: "companion.db"},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Memory: MemoryConfig{
			DedupThreshold:   0.9,
			DecayHalfLifeDay: 30,
			Hybrid: HybridConfig{
				VectorWeight: 0.65,
				TextWeight:   0.35,
			},
		},
		Heartbeat: HeartbeatConfig{
			TickInterval:       10 * time.Second,
			SnapshotEveryTicks: 6,
			ProactiveCooldown:  600 * time.Second,
			ProactiveEnabled:   true,
		},
		Prompt: PromptConfig{
			HistoryMessages:    10,
			HistoryTokenBudget: 2000,
			SummaryCount:       3,
			MemoryResults:      5,
		},
		Proactive: ProactiveConfig{
			MaxCuriosityItems: 10,
		},
	}
}

// Load reads a YAML config file and applies it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
