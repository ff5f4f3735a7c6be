package ccellm

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing api key", cfg: Config{Model: "gpt-4o-mini"}, wantErr: true},
		{name: "missing model", cfg: Config{APIKey: "sk-test"}, wantErr: true},
		{name: "valid", cfg: Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, wantErr: false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected an error")
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("CCE_LLM_BASE_URL", "")
	t.Setenv("CCE_LLM_MODEL", "")
	t.Setenv("CCE_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := ConfigFromEnv()
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected default base url: %q", cfg.BaseURL)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected default model: %q", cfg.Model)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.APIKey)
	}
	if cfg.MaxTokens != 512 {
		t.Fatalf("unexpected default max tokens: %d", cfg.MaxTokens)
	}
}

func TestConfigFromEnv_FallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("CCE_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-from-openai-env")

	cfg := ConfigFromEnv()
	if cfg.APIKey != "sk-from-openai-env" {
		t.Fatalf("expected fallback to OPENAI_API_KEY, got %q", cfg.APIKey)
	}
}

func TestConfigFromEnv_PrefersCCESpecificKey(t *testing.T) {
	t.Setenv("CCE_LLM_API_KEY", "sk-from-cce-env")
	t.Setenv("OPENAI_API_KEY", "sk-from-openai-env")

	cfg := ConfigFromEnv()
	if cfg.APIKey != "sk-from-cce-env" {
		t.Fatalf("expected CCE_LLM_API_KEY to take priority, got %q", cfg.APIKey)
	}
}

func TestNewSummarizer_RejectsInvalidConfigBeforeBuildingAClient(t *testing.T) {
	_, err := NewSummarizer(Config{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for an empty config, got %v", err)
	}
}
