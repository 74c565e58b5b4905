package plugins

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/jmottier/notihub/config"
	"github.com/jmottier/notihub/core/handler"
	coremetrics "github.com/jmottier/notihub/core/metrics"
	"github.com/jmottier/notihub/core/registry"
)

// ChannelFactory builds a handler factory from a raw configuration map.
type ChannelFactory func(name string, conf map[string]any) (handler.Factory, error)

// MetricsFactory builds a metrics exporter from raw config.
type MetricsFactory func(name string, conf map[string]any) (coremetrics.MetricsSink, error)

var (
	Channels         = map[string]ChannelFactory{}
	MetricsExporters = map[string]MetricsFactory{}
)

func RegisterChannel(name string, f ChannelFactory) { Channels[name] = f }
func RegisterMetrics(name string, f MetricsFactory) { MetricsExporters[name] = f }

// Decode fills out the provided struct using json tags.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: out})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// BuildChannels populates reg from the channel declarations. Each entry's
// plugin builds the factory; the duplicate policy of the registry applies,
// honoring the per-entry overwrite flag.
func BuildChannels(cfgs []config.ChannelConfig, reg *registry.Registry[handler.Factory]) error {
	for _, ch := range cfgs {
		build, ok := Channels[ch.Type]
		if !ok {
			return fmt.Errorf("channel %q: unknown plugin type %q", ch.Name, ch.Type)
		}
		f, err := build(ch.Name, ch.Conf)
		if err != nil {
			return fmt.Errorf("channel %q: %w", ch.Name, err)
		}
		if err := reg.Register(ch.Name, f, ch.Overwrite); err != nil {
			return err
		}
	}
	return nil
}

// BuildSinks constructs the configured metrics exporters.
func BuildSinks(cfg coremetrics.Config) ([]coremetrics.MetricsSink, error) {
	sinks := make([]coremetrics.MetricsSink, 0, len(cfg.Sinks))
	for _, sc := range cfg.Sinks {
		build, ok := MetricsExporters[sc.Type]
		if !ok {
			return nil, fmt.Errorf("unknown metrics exporter %q", sc.Type)
		}
		sink, err := build(sc.Type, sc.Conf)
		if err != nil {
			return nil, fmt.Errorf("metrics exporter %q: %w", sc.Type, err)
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}
