package gap

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"policylens/internal/model"
)

// Expectation declares the coverage expected for one condition
type Expectation struct {
	Keywords []string `yaml:"expected_keywords"`
	Risk     string   `yaml:"risk_level"`
}

// Config maps condition names to their expectations. It is externally
// authored and validated at analyzer startup: a malformed entry fails
// fast with a descriptive error instead of being silently skipped.
type Config map[string]Expectation

// LoadConfig reads and validates an expectation file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectation config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse expectation config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("expectation config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every entry and reports the first defect found
func (c Config) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("no conditions configured")
	}
	for condition, exp := range c {
		if strings.TrimSpace(condition) == "" {
			return fmt.Errorf("condition with empty name")
		}
		if len(exp.Keywords) == 0 {
			return fmt.Errorf("condition %q: no expected_keywords", condition)
		}
		for i, kw := range exp.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("condition %q: empty keyword at index %d", condition, i)
			}
		}
		if _, err := ParseRisk(exp.Risk); err != nil {
			return fmt.Errorf("condition %q: %w", condition, err)
		}
	}
	return nil
}

// ParseRisk converts a configured risk string to the canonical enum
func ParseRisk(risk string) (model.RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(risk)) {
	case "HIGH":
		return model.RiskHigh, nil
	case "MEDIUM":
		return model.RiskMedium, nil
	case "LOW":
		return model.RiskLow, nil
	default:
		return "", fmt.Errorf("invalid risk_level %q (expected HIGH, MEDIUM or LOW)", risk)
	}
}
