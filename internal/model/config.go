package model

import "time"

// Config holds the complete runtime configuration.
// Hierarchy (highest to lowest priority): CLI flags, POLICYLENS_* env
// vars, ~/.policylens/config.yaml, defaults.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	LLM      LLMConfig      `yaml:"llm" json:"llm"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// AnalysisConfig tunes the detectors and the service key resolver
type AnalysisConfig struct {
	// TariffVariance is the relative spread between the extreme tariff
	// values of a (service_key, unit) group above which a tariff
	// contradiction is emitted. Relative to the smaller value.
	TariffVariance float64 `yaml:"tariff_variance" json:"tariff_variance"`

	// HighSeverityVariance is the spread above which a tariff or limit
	// contradiction is graded HIGH instead of MEDIUM
	HighSeverityVariance float64 `yaml:"high_severity_variance" json:"high_severity_variance"`

	// HighRiskCategories upgrade any contradiction touching them to HIGH
	HighRiskCategories []string `yaml:"high_risk_categories" json:"high_risk_categories"`

	// KeySimilarity is the fuzzy-merge threshold of the service key
	// resolver. A deliberate precision/recall tradeoff: higher values
	// under-merge spelling variants (missed contradictions), lower
	// values over-merge distinct services (false contradictions).
	KeySimilarity float64 `yaml:"key_similarity" json:"key_similarity"`

	// AdequacyThreshold is the number of matching rules at which a
	// condition's coverage counts as ADEQUATE
	AdequacyThreshold int `yaml:"adequacy_threshold" json:"adequacy_threshold"`

	// FacilityLevelMin/Max bound the valid facility level range
	FacilityLevelMin int `yaml:"facility_level_min" json:"facility_level_min"`
	FacilityLevelMax int `yaml:"facility_level_max" json:"facility_level_max"`
}

// StoreMode selects insight store persistence behavior
type StoreMode string

const (
	// StoreCumulative persists insights across runs
	StoreCumulative StoreMode = "cumulative"
	// StoreSubmission scopes the store to the current invocation only
	StoreSubmission StoreMode = "submission"
)

// StoreConfig configures the cross-run insight store
type StoreConfig struct {
	Mode StoreMode `yaml:"mode" json:"mode"`
	Path string    `yaml:"path" json:"path"` // Used in cumulative mode
}

// LLMConfig configures the optional external reasoning collaborator
type LLMConfig struct {
	// Provider name: "openai", "ollama", "" (disabled)
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"-" json:"-"`
	BaseURL  string `yaml:"base_url" json:"base_url"`

	// Timeout is the hard per-call timeout in seconds
	Timeout int `yaml:"timeout" json:"timeout"`

	// MaxConcurrent bounds parallel collaborator calls
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// RequestsPerSecond and Burst rate-limit collaborator calls
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`

	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// CallTimeout returns the per-call timeout as a duration
func (c LLMConfig) CallTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			TariffVariance:       0.20,
			HighSeverityVariance: 0.50,
			HighRiskCategories: []string{
				"dialysis", "oncology", "emergency", "maternity", "surgery", "icu",
			},
			KeySimilarity:     0.80,
			AdequacyThreshold: 2,
			FacilityLevelMin:  1,
			FacilityLevelMax:  6,
		},
		Store: StoreConfig{
			Mode: StoreCumulative,
			Path: "", // Defaults to ~/.policylens/insights.json at runtime
		},
		LLM: LLMConfig{
			Provider:          "", // Disabled by default
			Timeout:           30,
			MaxConcurrent:     3,
			RequestsPerSecond: 1,
			Burst:             3,
			MaxTokens:         1000,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
