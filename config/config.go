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

	"github.com/jmottier/notihub/core/metrics"
	"github.com/jmottier/notihub/infra/mqtt"
)

// ChannelConfig declares one channel binding: Name is the type identifier
// registered in the dispatch registry, Type selects the plugin that builds
// the factory, Conf carries the plugin-specific raw settings.
type ChannelConfig struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Overwrite bool           `json:"overwrite"`
	Conf      map[string]any `json:"conf"`
}

// DispatchConfig holds dispatcher-level settings.
type DispatchConfig struct {
	// TimeoutSeconds is the default deadline applied to dispatch calls
	// whose context carries none. Zero disables it.
	TimeoutSeconds int `json:"timeout_seconds"`
}

type Config struct {
	Channels []ChannelConfig `json:"channels"`
	Dispatch DispatchConfig  `json:"dispatch"`
	Metrics  metrics.Config  `json:"metrics"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Logging  LoggingConfig   `json:"logging"`
}

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
	if err := k.Load(env.Provider("NOTIHUB_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "notihub_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the channel declarations and nested module configs.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channel %d: name is required", i)
		}
		if ch.Type == "" {
			return fmt.Errorf("channel %q: type is required", ch.Name)
		}
		if _, ok := seen[ch.Name]; ok && !ch.Overwrite {
			return fmt.Errorf("channel %q declared twice", ch.Name)
		}
		seen[ch.Name] = struct{}{}
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
