package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config defines the connection parameters for the MQTT request source.
type Config struct {
	Enabled      bool        `json:"enabled"`
	Broker       string      `json:"broker"`
	ClientID     string      `json:"client_id"`
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	UseTLS       bool        `json:"use_tls"`
	ClientCert   string      `json:"client_cert"`
	ClientKey    string      `json:"client_key"`
	CABundle     string      `json:"ca_bundle"`
	RequestTopic string      `json:"request_topic"`
	ResultTopic  string      `json:"result_topic"`
	// QoS is a pointer so an explicit 0 survives defaulting.
	QoS       *byte       `json:"qos"`
	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "notihub-source"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "notihub/requests"
	}
	if c.QoS == nil {
		qos := byte(1)
		c.QoS = &qos
	}
}

// Validate checks mandatory fields. It is a no-op when the source is
// disabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errors.New("broker is required when the mqtt source is enabled")
	}
	if c.QoS != nil && *c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", *c.QoS)
	}
	return nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	ca, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("load ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, errors.New("invalid ca bundle")
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
