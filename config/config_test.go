package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `channels:
  - name: "email"
    type: "email"
    conf:
      host: "smtp.example.com"
      port: 587
      from: "noreply@example.com"
  - name: "ops-webhook"
    type: "webhook"
    conf:
      timeout_seconds: 5
dispatch:
  timeout_seconds: 30
metrics:
  prometheus_port: ":9090"
  sinks:
    - type: "nop"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  request_topic: "notihub/requests"
  result_topic: "notihub/results"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"channel_count", len(cfg.Channels), 2},
		{"channel_name", cfg.Channels[0].Name, "email"},
		{"channel_type", cfg.Channels[1].Type, "webhook"},
		{"channel_conf", cfg.Channels[0].Conf["host"], "smtp.example.com"},
		{"dispatch_timeout", cfg.Dispatch.TimeoutSeconds, 30},
		{"prom_port", cfg.Metrics.PrometheusPort, ":9090"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt_enabled", cfg.MQTT.Enabled, true},
		{"mqtt_broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt_result_topic", cfg.MQTT.ResultTopic, "notihub/results"},
		{"log_level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `logging:
  level: "info"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NOTIHUB_LOGGING__LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env override, got %s", cfg.Logging.Level)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestValidate_ChannelErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Channels: []ChannelConfig{{Type: "email"}}}},
		{"missing type", Config{Channels: []ChannelConfig{{Name: "email"}}}},
		{"duplicate", Config{Channels: []ChannelConfig{
			{Name: "email", Type: "email"},
			{Name: "email", Type: "sms"},
		}}},
	}
	for _, c := range cases {
		c.cfg.Logging.SetDefaults()
		if err := c.cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestValidate_DuplicateWithOverwrite(t *testing.T) {
	cfg := Config{Channels: []ChannelConfig{
		{Name: "email", Type: "email"},
		{Name: "email", Type: "sms", Overwrite: true},
	}}
	cfg.Logging.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
