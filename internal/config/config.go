package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/eventgov/internal/core/policy"
)

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

// MemgraphConfig enables the graph projection when URI is set.
type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ExtractionConfig struct {
	BusinessKnowledgePath string `toml:"business_knowledge_path"`
	UserPrefix            string `toml:"user_prefix"`
}

type RetryConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`
	DelayMS           int     `toml:"delay_ms"`
	Multiplier        float64 `toml:"multiplier"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerMinute int     `toml:"requests_per_minute"`
}

type PolicyConfig struct {
	SilverConfidence          float64 `toml:"silver_confidence"`
	SilverAgreement           float64 `toml:"silver_agreement"`
	TagMinFrequency           int     `toml:"tag_min_frequency"`
	TagMinSchools             int     `toml:"tag_min_schools"`
	TagMinConsistency         float64 `toml:"tag_min_consistency"`
	TagSimilarityVeto         float64 `toml:"tag_similarity_veto"`
	FrequencyWindowDays       int     `toml:"frequency_window_days"`
	AliasSimilarityFloor      float64 `toml:"alias_similarity_floor"`
	AliasMinFrequency         int     `toml:"alias_min_frequency"`
	MergeSuggestionSimilarity float64 `toml:"merge_suggestion_similarity"`
}

type GovernanceConfig struct {
	SeedPath         string `toml:"seed_path"`
	DraftDefinitions bool   `toml:"draft_definitions"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type LogConfig struct {
	Mode string `toml:"mode"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Store      StoreConfig      `toml:"store"`
	Memgraph   MemgraphConfig   `toml:"memgraph"`
	Extraction ExtractionConfig `toml:"extraction"`
	Retry      RetryConfig      `toml:"retry"`
	Policy     PolicyConfig     `toml:"policy"`
	Governance GovernanceConfig `toml:"governance"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	p := policy.Default()
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Temperature: 0.1,
			MaxTokens:   4096,
		},
		Store: StoreConfig{Path: "data/eventgov.db"},
		Extraction: ExtractionConfig{
			BusinessKnowledgePath: "config/business_knowledge.md",
			UserPrefix:            "日报内容：\n",
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			DelayMS:        2000,
			Multiplier:     1.0,
			TimeoutSeconds: 90,
		},
		Policy: PolicyConfig{
			SilverConfidence:          p.SilverConfidence,
			SilverAgreement:           p.SilverAgreement,
			TagMinFrequency:           p.TagMinFrequency,
			TagMinSchools:             p.TagMinSchools,
			TagMinConsistency:         p.TagMinConsistency,
			TagSimilarityVeto:         p.TagSimilarityVeto,
			FrequencyWindowDays:       int(p.FrequencyWindow / (24 * time.Hour)),
			AliasSimilarityFloor:      p.AliasSimilarityFloor,
			AliasMinFrequency:         p.AliasMinFrequency,
			MergeSuggestionSimilarity: p.MergeSuggestionSimilarity,
		},
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Mode: "dev"},
	}
}

// Load reads a TOML file over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() {
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.Store.Path, "STORE_PATH")
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.Extraction.BusinessKnowledgePath, "BUSINESS_KNOWLEDGE_PATH")
	setString(&c.Governance.SeedPath, "TAXONOMY_SEED_PATH")
	setString(&c.Server.Port, "PORT")
	setString(&c.Log.Mode, "LOG_MODE")
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxAttempts = n
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks the pieces that would otherwise fail deep inside a batch.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("config: store.path is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.DelayMS < 0 || c.Retry.TimeoutSeconds < 0 || c.Retry.RequestsPerMinute < 0 {
		return fmt.Errorf("config: retry durations and rates must not be negative")
	}
	if err := c.GovernancePolicy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// GovernancePolicy converts the [policy] section into the immutable policy value.
func (c *Config) GovernancePolicy() policy.Policy {
	p := c.Policy
	return policy.Policy{
		SilverConfidence:          p.SilverConfidence,
		SilverAgreement:           p.SilverAgreement,
		TagMinFrequency:           p.TagMinFrequency,
		TagMinSchools:             p.TagMinSchools,
		TagMinConsistency:         p.TagMinConsistency,
		TagSimilarityVeto:         p.TagSimilarityVeto,
		FrequencyWindow:           time.Duration(p.FrequencyWindowDays) * 24 * time.Hour,
		AliasSimilarityFloor:      p.AliasSimilarityFloor,
		AliasMinFrequency:         p.AliasMinFrequency,
		MergeSuggestionSimilarity: p.MergeSuggestionSimilarity,
	}
}
