// Package cceconfig loads CLI configuration for the cce command: a YAML
// file overridden by environment variables, unmarshaled with koanf.
package cceconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config holds every knob the cce CLI exposes, mirroring cce.CompressOptions
// plus the ambient LLM and logging settings that sit outside the core.
type Config struct {
	Preserve         []string `koanf:"preserve"`
	RecencyWindow    int      `koanf:"recency_window"`
	SourceVersion    int      `koanf:"source_version"`
	TokenBudget      int      `koanf:"token_budget"`
	MinRecencyWindow int      `koanf:"min_recency_window"`
	DisableDedup     bool     `koanf:"disable_dedup"`
	FuzzyDedup       bool     `koanf:"fuzzy_dedup"`
	FuzzyThreshold   float64  `koanf:"fuzzy_threshold"`
	EmbedSummaryID   bool     `koanf:"embed_summary_id"`
	ForceConverge    bool     `koanf:"force_converge"`
	DeepSecretScan   bool     `koanf:"deep_secret_scan"`
	Recursive        bool     `koanf:"recursive"`

	LLM      LLMConfig `koanf:"llm"`
	LogJSON  bool      `koanf:"log_json"`
	LogLevel string    `koanf:"log_level"`
}

// LLMConfig configures the optional ccellm-backed external summarizer.
type LLMConfig struct {
	Enabled       bool     `koanf:"enabled"`
	BaseURL       string   `koanf:"base_url"`
	Model         string   `koanf:"model"`
	APIKey        string   `koanf:"api_key"`
	MaxTokens     int      `koanf:"max_tokens"`
	SystemPrompt  string   `koanf:"system_prompt"`
	PreserveTerms []string `koanf:"preserve_terms"`
}

func defaults() Config {
	return Config{
		Preserve:       []string{"system"},
		RecencyWindow:  4,
		FuzzyThreshold: 0.85,
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			BaseURL:   "https://api.openai.com/v1",
			MaxTokens: 512,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file at configPath (if it exists; the empty string
// means ~/.config/cce/config.yaml), then environment variables prefixed
// CCE_, layering both over hardcoded defaults.
func Load(configPath string) (Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = filepath.Join(home, ".config", "cce", "config.yaml")
		}
	}
	if configPath != "" {
		if content, err := os.ReadFile(configPath); err == nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("CCE_", ".", envKeyTransform), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// envKeyTransform maps CCE_RECENCY_WINDOW -> recency_window and
// CCE_LLM_MODEL -> llm.model.
func envKeyTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, "CCE_"))
	if strings.HasPrefix(lower, "llm_") {
		return "llm." + strings.TrimPrefix(lower, "llm_")
	}
	return lower
}

// RecencyWindowPtr returns a pointer to RecencyWindow, for callers filling
// in cce.CompressOptions.RecencyWindow (which distinguishes unset from an
// explicit zero).
func (c Config) RecencyWindowPtr() *int {
	w := c.RecencyWindow
	return &w
}
