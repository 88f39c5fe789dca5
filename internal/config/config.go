// Package config loads the shopsync service configuration from a YAML file,
// applying defaults for everything not set.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the service configuration file.
type Config struct {
	// Port is the HTTP listen port. Overridable with -port or $PORT.
	Port int `yaml:"port"`

	// BitrixURL is the CRM inbound-webhook REST endpoint, e.g.
	// https://portal.example.com/rest/1/<token>. Overridable with
	// $BITRIX_WEBHOOK_URL.
	BitrixURL string `yaml:"bitrix_url"`

	// PreorderTags route tagged orders into the pre-order pipeline
	// category. Matching is case-insensitive.
	PreorderTags []string `yaml:"preorder_tags"`

	StockCategoryID    int `yaml:"stock_category_id"`
	PreorderCategoryID int `yaml:"preorder_category_id"`

	// LookupLimit bounds the filtered deal lookup; ScanLimit caps the
	// unfiltered fallback window.
	LookupLimit int `yaml:"lookup_limit"`
	ScanLimit   int `yaml:"scan_limit"`

	// EventLogSize bounds the in-memory diagnostic event log.
	EventLogSize int `yaml:"event_log_size"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Port:               8090,
		PreorderTags:       []string{"pre-order", "preorder", "pre order"},
		StockCategoryID:    0,
		PreorderCategoryID: 1,
		LookupLimit:        50,
		ScanLimit:          200,
		EventLogSize:       1000,
	}
}

// Load reads the config file at path. An empty path or a missing file yields
// the defaults; a present but unparseable file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := Default()
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if len(c.PreorderTags) == 0 {
		c.PreorderTags = d.PreorderTags
	}
	if c.LookupLimit <= 0 {
		c.LookupLimit = d.LookupLimit
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = d.ScanLimit
	}
	if c.EventLogSize <= 0 {
		c.EventLogSize = d.EventLogSize
	}
}

// Validate checks the settings a running service cannot do without.
func (c *Config) Validate() error {
	if c.BitrixURL == "" {
		return fmt.Errorf("bitrix_url is required (or set BITRIX_WEBHOOK_URL)")
	}
	return nil
}
