package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmottier/notihub/app/plugins"
	"github.com/jmottier/notihub/config"
	"github.com/jmottier/notihub/core/dispatch"
	"github.com/jmottier/notihub/core/events"
	"github.com/jmottier/notihub/core/handler"
	coremetrics "github.com/jmottier/notihub/core/metrics"
	"github.com/jmottier/notihub/core/registry"
	"github.com/jmottier/notihub/infra/logger"
	inframetrics "github.com/jmottier/notihub/infra/metrics"
	"github.com/jmottier/notihub/infra/mqtt"
	"github.com/jmottier/notihub/internal/eventbus"
)

// Service assembles the registry, dispatcher, metrics pipeline and request
// sources from the configuration. Lifecycle is owned by the caller; nothing
// here is a package-level singleton.
type Service struct {
	Dispatcher *dispatch.Dispatcher

	bus      *eventbus.Bus[events.DispatchEvent]
	source   *mqtt.Source
	sinks    []coremetrics.MetricsSink
	log      logger.Logger
	promPort string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	reg := registry.New[handler.Factory]()
	if err := plugins.BuildChannels(cfg.Channels, reg); err != nil {
		return nil, fmt.Errorf("build channels: %w", err)
	}

	sinks, err := plugins.BuildSinks(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("build metrics sinks: %w", err)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = inframetrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New[events.DispatchEvent]()
	disp := dispatch.NewDispatcher(reg, logg, sink, bus)
	if cfg.Dispatch.TimeoutSeconds > 0 {
		disp.SetTimeout(time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second)
	}

	svc := &Service{
		Dispatcher: disp,
		bus:        bus,
		sinks:      sinks,
		log:        logg,
		promPort:   cfg.Metrics.PrometheusPort,
	}
	if cfg.MQTT.Enabled {
		svc.source = mqtt.NewSource(cfg.MQTT, disp)
	}
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	sub := s.bus.Subscribe()
	go func() {
		for ev := range sub {
			if !ev.OK {
				s.log.Warnf("dispatch on %s failed (%s): %s", ev.Channel, ev.Kind, ev.Err)
			}
		}
	}()

	if s.promPort != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.source != nil {
		go func() {
			if err := s.source.Start(ctx); err != nil {
				s.log.Errorf("mqtt source: %v", err)
			}
		}()
	}

	s.log.Infof("notihub running, channels: %v", s.Dispatcher.Registry().Types())
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	for _, sink := range s.sinks {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
	return nil
}
