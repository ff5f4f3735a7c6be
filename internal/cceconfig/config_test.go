package cceconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithNoFileOrEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Preserve) != 1 || cfg.Preserve[0] != "system" {
		t.Fatalf("expected default preserve [system], got %v", cfg.Preserve)
	}
	if cfg.RecencyWindow != 4 {
		t.Fatalf("expected default recency window 4, got %d", cfg.RecencyWindow)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %q", cfg.LLM.Model)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "recency_window: 10\ntoken_budget: 2000\nllm:\n  enabled: true\n  model: gpt-4o\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RecencyWindow != 10 {
		t.Fatalf("expected recency_window 10 from file, got %d", cfg.RecencyWindow)
	}
	if cfg.TokenBudget != 2000 {
		t.Fatalf("expected token_budget 2000 from file, got %d", cfg.TokenBudget)
	}
	if !cfg.LLM.Enabled || cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("expected llm overrides from file, got %+v", cfg.LLM)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("expected llm.base_url to keep its default when unset, got %q", cfg.LLM.BaseURL)
	}
}

func TestLoad_EnvVarsOverrideFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("recency_window: 10\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("CCE_RECENCY_WINDOW", "7")
	t.Setenv("CCE_LLM_MODEL", "env-override-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RecencyWindow != 7 {
		t.Fatalf("expected env var to win over file, got %d", cfg.RecencyWindow)
	}
	if cfg.LLM.Model != "env-override-model" {
		t.Fatalf("expected llm_model env var to map to llm.model, got %q", cfg.LLM.Model)
	}
}

func TestEnvKeyTransform(t *testing.T) {
	if got := envKeyTransform("CCE_RECENCY_WINDOW"); got != "recency_window" {
		t.Fatalf("got %q", got)
	}
	if got := envKeyTransform("CCE_LLM_MODEL"); got != "llm.model" {
		t.Fatalf("got %q", got)
	}
	if got := envKeyTransform("CCE_LOG_JSON"); got != "log_json" {
		t.Fatalf("got %q", got)
	}
}

func TestRecencyWindowPtr(t *testing.T) {
	cfg := Config{RecencyWindow: 9}
	p := cfg.RecencyWindowPtr()
	if p == nil || *p != 9 {
		t.Fatalf("expected pointer to 9, got %v", p)
	}
}
