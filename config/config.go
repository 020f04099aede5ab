// Package config loads the service configuration from YAML or JSON files
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/adityakp21/chargegrid/core/bus"
	"github.com/adityakp21/chargegrid/core/metrics"
	"github.com/adityakp21/chargegrid/infra/mqtt"
	"github.com/adityakp21/chargegrid/infra/push"
	"github.com/adityakp21/chargegrid/infra/realtime"
)

type Config struct {
	MQTT     mqtt.Config     `json:"mqtt"`
	Bus      bus.Config      `json:"bus"`
	Realtime realtime.Config `json:"realtime"`
	Push     push.Config     `json:"push"`
	Metrics  metrics.Config  `json:"metrics"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Bus.SetDefaults()
	c.Realtime.SetDefaults()
	c.Push.SetDefaults()
	c.Metrics.SetDefaults()
}

// Load reads the file at path and applies CG_ environment overrides, with
// "__" standing in for the section separator (CG_MQTT__BROKER).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CG_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cg_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
