package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the carsearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Inventory InventoryConfig `yaml:"inventory"`
	NLU       NLUConfig       `yaml:"nlu"`
	Parsing   ParsingConfig   `yaml:"parsing"`
	Search    SearchConfig    `yaml:"search"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds embedding cache settings. Redis is optional: with no
// addrs the cache runs on the in-process LRU tier alone.
type CacheConfig struct {
	RedisAddrs []string `yaml:"redis_addrs"`
	Password   string   `yaml:"password"`
	TTLHours   int      `yaml:"ttl_hours"`
	LRUSize    int      `yaml:"lru_size"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// InventoryConfig holds the external search index settings.
type InventoryConfig struct {
	BaseURL    string      `yaml:"base_url"`
	Index      string      `yaml:"index"`
	APIKey     string      `yaml:"api_key"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Retry      RetryConfig `yaml:"retry"`
}

// RetryConfig bounds retries against the external backend.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`
}

// NLUConfig holds the external query-understanding service settings.
type NLUConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ParsingConfig holds constraint parsing tunables.
type ParsingConfig struct {
	// ApproxBand is the ± fraction applied to "around"/"about" values.
	ApproxBand float64 `yaml:"approx_band"`
	// QualitativeTerms maps a term ("cheap") to its default constraints.
	// Empty means use the built-in defaults.
	QualitativeTerms map[string][]ConstraintSpec `yaml:"qualitative_terms"`
}

// ConstraintSpec is the YAML form of one default constraint.
type ConstraintSpec struct {
	Field  string   `yaml:"field"`
	Op     string   `yaml:"op"` // eq, ne, gt, ge, lt, le, between, contains, in
	Number *float64 `yaml:"number"`
	Low    *float64 `yaml:"low"`
	High   *float64 `yaml:"high"`
	Text   string   `yaml:"text"`
	Values []string `yaml:"values"`
}

// SearchConfig holds retrieval execution tunables.
type SearchConfig struct {
	// OverfetchFactor multiplies the requested size on backend calls so
	// filtering and diversity have candidates to discard.
	OverfetchFactor int `yaml:"overfetch_factor"`
	RRFK            int `yaml:"rrf_k"`
	MaxResults      int `yaml:"max_results"`
}

// RankingConfig holds re-ranking, diversity, rule, and concept settings.
type RankingConfig struct {
	FactorWeights map[string]float64     `yaml:"factor_weights"`
	Diversity     DiversityConfig        `yaml:"diversity"`
	BusinessRules []BusinessRuleSpec     `yaml:"business_rules"`
	Concepts      map[string]ConceptSpec `yaml:"concepts"`
}

// DiversityConfig caps repeated makes and models in a result page.
type DiversityConfig struct {
	MaxPerMake  int `yaml:"max_per_make"`
	MaxPerModel int `yaml:"max_per_model"`
}

// BusinessRuleSpec binds a registered predicate name to an adjustment.
type BusinessRuleSpec struct {
	Name       string  `yaml:"name"`
	Predicate  string  `yaml:"predicate"`
	Text       string  `yaml:"text"`
	Number     float64 `yaml:"number"`
	Adjustment float64 `yaml:"adjustment"`
}

// ConceptSpec is the YAML form of one conceptual mapping.
type ConceptSpec struct {
	Weights  []ConceptWeightSpec `yaml:"weights"`
	Positive []string            `yaml:"positive"`
	Negative []string            `yaml:"negative"`
}

// ConceptWeightSpec is one weighted attribute comparison.
type ConceptWeightSpec struct {
	Attribute  string   `yaml:"attribute"`
	Weight     float64  `yaml:"weight"`
	Comparison string   `yaml:"comparison"` // less, greater, equals, in
	Number     float64  `yaml:"number"`
	Text       string   `yaml:"text"`
	Values     []string `yaml:"values"`
}

// Load reads the YAML config for the named environment (local, dev, prod),
// expands ${VAR:-default} placeholders, then applies defaults and validates.
func Load(env string) (Config, error) {
	path := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24
	}
	if c.Cache.LRUSize <= 0 {
		c.Cache.LRUSize = 1000
	}
	if c.Inventory.TimeoutSec <= 0 {
		c.Inventory.TimeoutSec = 10
	}
	if c.Inventory.Retry.MaxAttempts <= 0 {
		c.Inventory.Retry.MaxAttempts = 3
	}
	if c.Inventory.Retry.InitialDelayMs <= 0 {
		c.Inventory.Retry.InitialDelayMs = 200
	}
	if c.Inventory.Retry.MaxDelayMs <= 0 {
		c.Inventory.Retry.MaxDelayMs = 2000
	}
	if c.NLU.TimeoutSec <= 0 {
		c.NLU.TimeoutSec = 5
	}
	if c.Parsing.ApproxBand <= 0 {
		c.Parsing.ApproxBand = 0.10
	}
	if len(c.Parsing.QualitativeTerms) == 0 {
		c.Parsing.QualitativeTerms = defaultQualitativeTerms()
	}
	if c.Search.OverfetchFactor < 3 {
		c.Search.OverfetchFactor = 3
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 20
	}
	if len(c.Ranking.FactorWeights) == 0 {
		c.Ranking.FactorWeights = map[string]float64{
			"semantic":              0.40,
			"exact_match":           0.25,
			"price_competitiveness": 0.15,
			"condition":             0.10,
			"recency":               0.10,
		}
	}
	if c.Ranking.Diversity.MaxPerMake <= 0 {
		c.Ranking.Diversity.MaxPerMake = 3
	}
	if c.Ranking.Diversity.MaxPerModel <= 0 {
		c.Ranking.Diversity.MaxPerModel = 2
	}
	if len(c.Ranking.Concepts) == 0 {
		c.Ranking.Concepts = defaultConcepts()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Inventory.BaseURL == "" {
		return fmt.Errorf("inventory.base_url is required")
	}
	if c.Inventory.Index == "" {
		return fmt.Errorf("inventory.index is required")
	}
	if c.NLU.BaseURL == "" {
		return fmt.Errorf("nlu.base_url is required")
	}
	if c.Parsing.ApproxBand >= 1 {
		return fmt.Errorf("parsing.approx_band must be a fraction below 1, got %v", c.Parsing.ApproxBand)
	}
	for _, r := range c.Ranking.BusinessRules {
		if r.Name == "" || r.Predicate == "" {
			return fmt.Errorf("ranking.business_rules entries need name and predicate")
		}
		if r.Adjustment < -1 || r.Adjustment > 1 {
			return fmt.Errorf("ranking.business_rules.%s adjustment %v outside [-1,1]", r.Name, r.Adjustment)
		}
	}
	return nil
}

// findConfigPath tries ./config/<env>.yaml first, then the config dir at
// the repository root (for tests run from package directories).
func findConfigPath(env string) string {
	filename := env + ".yaml"
	local := filepath.Join("config", filename)

	candidates := []string{local}
	if _, src, _, ok := runtime.Caller(0); ok {
		root := filepath.Dir(filepath.Dir(filepath.Dir(src))) // internal/config -> repo root
		candidates = append(candidates, filepath.Join(root, "config", filename))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return local
}

// expandEnvVars substitutes $VAR and ${VAR:-default} placeholders with
// environment values. Unset variables without a default become empty.
func expandEnvVars(data []byte) []byte {
	return []byte(os.Expand(string(data), func(expr string) string {
		name, def, hasDefault := strings.Cut(expr, ":-")
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return ""
	}))
}
