// Package payments is the thin integration layer to the external payments
// provider: a process-wide read-only configuration map keyed by project, and
// a small service orchestrating checkout and subscription lookups through
// the provider's API.
package payments

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ItemConfig names a billable item.
type ItemConfig struct {
	Name string `json:"name"`
}

// PricingItemRef grants a quantity of an item when a pricing model is
// subscribed to.
type PricingItemRef struct {
	ItemConfigID string `json:"item_config_id"`
	Quantity     int    `json:"quantity"`
}

type PricingModelConfig struct {
	Name     string           `json:"name"`
	Items    []PricingItemRef `json:"items"`
	PriceUSD float64          `json:"price_usd"`
}

type APIKeys struct {
	Secret      string `json:"secret"`
	Publishable string `json:"publishable"`
}

type ProjectConfig struct {
	APIKeys             APIKeys                       `json:"api_keys"`
	PricingModelConfigs map[string]PricingModelConfig `json:"pricing_model_configs"`
	ItemConfigs         map[string]ItemConfig         `json:"item_configs"`
}

// Config is the per-project payments configuration. It is constructed once
// at process start from an environment-supplied JSON blob and never mutated
// afterwards, so concurrent reads need no locking.
type Config struct {
	projects map[string]ProjectConfig
}

// ParseConfig builds the configuration from the raw JSON blob. An empty
// blob yields a configuration with payments enabled for no project.
func ParseConfig(raw string) (*Config, error) {
	cfg := &Config{projects: make(map[string]ProjectConfig)}
	if raw == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg.projects); err != nil {
		return nil, errors.Wrap(err, "[payments.ParseConfig] parse projects json")
	}
	return cfg, nil
}

// Project returns the configuration for a project, if payments are enabled
// for it.
func (c *Config) Project(projectID string) (ProjectConfig, bool) {
	project, ok := c.projects[projectID]
	return project, ok
}

// ProjectIDs lists every project payments are enabled for.
func (c *Config) ProjectIDs() []string {
	ids := make([]string, 0, len(c.projects))
	for id := range c.projects {
		ids = append(ids, id)
	}
	return ids
}
