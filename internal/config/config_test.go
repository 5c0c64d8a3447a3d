package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.AI.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.AI.Provider)
	}
	if cfg.AI.Model != "qwen2.5:7b" {
		t.Errorf("expected model 'qwen2.5:7b', got %q", cfg.AI.Model)
	}
	if cfg.Recommend.MinMatchScore != 0.3 {
		t.Errorf("expected min_match_score 0.3, got %v", cfg.Recommend.MinMatchScore)
	}
	if cfg.Recommend.RerankBatchSize != 30 {
		t.Errorf("expected rerank_batch_size 30, got %d", cfg.Recommend.RerankBatchSize)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
ai:
  provider: openai
  openai_model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.AI.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.AI.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.AI.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.AI.OllamaURL)
	}
	if cfg.Recommend.DefaultLimit != 20 {
		t.Errorf("expected default limit 20, got %d", cfg.Recommend.DefaultLimit)
	}
	if cfg.Scoring.KeywordCap != 0.60 {
		t.Errorf("expected default keyword_cap 0.60, got %v", cfg.Scoring.KeywordCap)
	}
}

func TestParsePartialScoringSection(t *testing.T) {
	data := []byte(`
scoring:
  keyword_cap: 0.5
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	if cfg.Scoring.KeywordCap != 0.5 {
		t.Errorf("expected keyword_cap 0.5, got %v", cfg.Scoring.KeywordCap)
	}
	if cfg.Scoring.TitleKeywordWeight != 1.5 {
		t.Errorf("expected default title weight 1.5, got %v", cfg.Scoring.TitleKeywordWeight)
	}
	if cfg.Scoring.HighThreshold != 0.65 {
		t.Errorf("expected default high threshold 0.65, got %v", cfg.Scoring.HighThreshold)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Recommend.CacheTTLDays != 7 {
		t.Errorf("expected cache_ttl_days 7, got %d", cfg.Recommend.CacheTTLDays)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Recommend.MaxLimit != 50 {
		t.Errorf("expected max limit 50, got %d", cfg.Recommend.MaxLimit)
	}
	if cfg.AI.ScoringTimeoutSeconds != 45 {
		t.Errorf("expected scoring timeout 45, got %d", cfg.AI.ScoringTimeoutSeconds)
	}
}

func TestGetDatabasePath(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDatabasePath() == "" {
		t.Error("expected non-empty default database path")
	}

	cfg.Database.Path = "/custom/notes.db"
	if cfg.GetDatabasePath() != "/custom/notes.db" {
		t.Errorf("expected explicit path, got %q", cfg.GetDatabasePath())
	}

	cfg.Database.Path = ""
	cfg.Output.DataDir = "/data"
	if cfg.GetDatabasePath() != filepath.Join("/data", "recommender.db") {
		t.Errorf("expected data-dir path, got %q", cfg.GetDatabasePath())
	}
}
