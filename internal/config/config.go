package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Database  Database  `yaml:"database"`
	AI        AI        `yaml:"ai"`
	Recommend Recommend `yaml:"recommend"`
	Scoring   Scoring   `yaml:"scoring"`
	Server    Server    `yaml:"server"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
}

type Database struct {
	Path string `yaml:"path"`
}

type AI struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	OllamaURL   string  `yaml:"ollama_url"`
	OpenAIModel string  `yaml:"openai_model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// Per-call timeouts in seconds. Each AI call carries its own deadline;
	// a timeout degrades exactly like any other AI failure.
	SynonymTimeoutSeconds int `yaml:"synonym_timeout_seconds"`
	InsightTimeoutSeconds int `yaml:"insight_timeout_seconds"`
	ScoringTimeoutSeconds int `yaml:"scoring_timeout_seconds"`
}

type Recommend struct {
	MinMatchScore   float64 `yaml:"min_match_score"`
	DefaultLimit    int     `yaml:"default_limit"`
	MaxLimit        int     `yaml:"max_limit"`
	SimilarLimit    int     `yaml:"similar_limit"`
	RerankBatchSize int     `yaml:"rerank_batch_size"`
	CacheTTLDays    int     `yaml:"cache_ttl_days"`
}

// Scoring holds the lexical scoring weights and caps. Zero values are
// filled from defaults so a partial YAML section stays usable.
type Scoring struct {
	KeywordCap         float64 `yaml:"keyword_cap"`          // default: 0.60
	TitleKeywordWeight float64 `yaml:"title_keyword_weight"` // default: 1.5
	BodyKeywordWeight  float64 `yaml:"body_keyword_weight"`  // default: 0.8
	SimilarityCap      float64 `yaml:"similarity_cap"`       // default: 0.20
	TopicInTitleBonus  float64 `yaml:"topic_in_title_bonus"` // default: 0.12
	BodyKeywordBonus   float64 `yaml:"body_keyword_bonus"`   // default: 0.04
	PerformanceCap     float64 `yaml:"performance_cap"`      // default: 0.15
	EngagementCeiling  float64 `yaml:"engagement_ceiling"`   // default: 10000
	CategoryBonus      float64 `yaml:"category_bonus"`       // default: 0.05
	HighThreshold      float64 `yaml:"high_threshold"`       // default: 0.65
	MediumThreshold    float64 `yaml:"medium_threshold"`     // default: 0.40
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for recommender.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "recommender")
}

// DataDir returns the XDG data directory for recommender.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "recommender")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/recommender/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'recommender init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		AI: AI{
			Provider:              "ollama",
			Model:                 "qwen2.5:7b",
			OllamaURL:             "http://localhost:11434",
			OpenAIModel:           "gpt-4o-mini",
			APIKeyEnv:             "OPENAI_API_KEY",
			Temperature:           0.3,
			MaxTokens:             2048,
			SynonymTimeoutSeconds: 30,
			InsightTimeoutSeconds: 30,
			ScoringTimeoutSeconds: 45,
		},
		Recommend: Recommend{
			MinMatchScore:   0.3,
			DefaultLimit:    20,
			MaxLimit:        50,
			SimilarLimit:    10,
			RerankBatchSize: 30,
			CacheTTLDays:    7,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Scoring.ApplyDefaults()
	return cfg, nil
}

// DefaultScoring returns the default scoring weights.
func DefaultScoring() Scoring {
	return Scoring{
		KeywordCap:         0.60,
		TitleKeywordWeight: 1.5,
		BodyKeywordWeight:  0.8,
		SimilarityCap:      0.20,
		TopicInTitleBonus:  0.12,
		BodyKeywordBonus:   0.04,
		PerformanceCap:     0.15,
		EngagementCeiling:  10000,
		CategoryBonus:      0.05,
		HighThreshold:      0.65,
		MediumThreshold:    0.40,
	}
}

// ApplyDefaults fills zero values with defaults.
func (s *Scoring) ApplyDefaults() {
	d := DefaultScoring()
	if s.KeywordCap == 0 {
		s.KeywordCap = d.KeywordCap
	}
	if s.TitleKeywordWeight == 0 {
		s.TitleKeywordWeight = d.TitleKeywordWeight
	}
	if s.BodyKeywordWeight == 0 {
		s.BodyKeywordWeight = d.BodyKeywordWeight
	}
	if s.SimilarityCap == 0 {
		s.SimilarityCap = d.SimilarityCap
	}
	if s.TopicInTitleBonus == 0 {
		s.TopicInTitleBonus = d.TopicInTitleBonus
	}
	if s.BodyKeywordBonus == 0 {
		s.BodyKeywordBonus = d.BodyKeywordBonus
	}
	if s.PerformanceCap == 0 {
		s.PerformanceCap = d.PerformanceCap
	}
	if s.EngagementCeiling == 0 {
		s.EngagementCeiling = d.EngagementCeiling
	}
	if s.CategoryBonus == 0 {
		s.CategoryBonus = d.CategoryBonus
	}
	if s.HighThreshold == 0 {
		s.HighThreshold = d.HighThreshold
	}
	if s.MediumThreshold == 0 {
		s.MediumThreshold = d.MediumThreshold
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetDatabasePath returns the effective database path.
func (c *Config) GetDatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.GetDataDir(), "recommender.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
