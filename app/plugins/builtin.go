package plugins

import (
	"github.com/jmottier/notihub/channels"
	"github.com/jmottier/notihub/core/handler"
	coremetrics "github.com/jmottier/notihub/core/metrics"
	"github.com/jmottier/notihub/infra/logger"
	inframetrics "github.com/jmottier/notihub/infra/metrics"
)

func init() {
	RegisterChannel("email", func(name string, conf map[string]any) (handler.Factory, error) {
		var c channels.EmailConfig
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return channels.NewEmailFactory(c), nil
	})
	RegisterChannel("sms", func(name string, conf map[string]any) (handler.Factory, error) {
		var c channels.SMSConfig
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return channels.NewSMSFactory(c)
	})
	RegisterChannel("push", func(name string, conf map[string]any) (handler.Factory, error) {
		var c channels.PushConfig
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return channels.NewPushFactory(c)
	})
	RegisterChannel("webhook", func(name string, conf map[string]any) (handler.Factory, error) {
		var c channels.WebhookConfig
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return channels.NewWebhookFactory(c), nil
	})
	RegisterChannel("log", func(name string, _ map[string]any) (handler.Factory, error) {
		return channels.NewLogFactory(logger.New("channel." + name)), nil
	})
	RegisterChannel("mqtt", func(name string, conf map[string]any) (handler.Factory, error) {
		var c channels.MQTTConfig
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return channels.NewMQTTFactory(c)
	})

	RegisterMetrics("nop", func(name string, _ map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	RegisterMetrics("prometheus", func(name string, _ map[string]any) (coremetrics.MetricsSink, error) {
		return inframetrics.NewPromSink()
	})
	RegisterMetrics("influx", func(name string, conf map[string]any) (coremetrics.MetricsSink, error) {
		var ic inframetrics.InfluxConfig
		if err := Decode(conf, &ic); err != nil {
			return nil, err
		}
		return inframetrics.NewInfluxSinkWithFallback(ic), nil
	})
}
