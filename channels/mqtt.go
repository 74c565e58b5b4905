package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/jmottier/notihub/core/handler"
)

// MQTTConfig holds the broker settings for the mqtt channel.
type MQTTConfig struct {
	Broker                string `json:"broker"`
	ClientID              string `json:"client_id"`
	Username              string `json:"username"`
	Password              string `json:"password"`
	DefaultTopic          string `json:"default_topic"`
	QoS                   byte   `json:"qos"`
	Retain                bool   `json:"retain"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "notihub-mqtt-channel"
	}
	if c.ConnectTimeoutSeconds == 0 {
		c.ConnectTimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	return nil
}

type mqttClient interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

var newMQTTClient = func(opts *paho.ClientOptions) mqttClient {
	return paho.NewClient(opts)
}

// MQTTFactory is a delegated-strategy factory: New performs the multi-step
// construction of opening a broker connection before returning the handler.
// The dispatcher cannot tell it apart from a plain FactoryFunc.
type MQTTFactory struct {
	cfg MQTTConfig
}

// NewMQTTFactory creates the factory after validating the broker settings.
func NewMQTTFactory(cfg MQTTConfig) (*MQTTFactory, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MQTTFactory{cfg: cfg}, nil
}

// New connects to the broker and returns a handler bound to that connection.
// The connection lives for a single dispatch; the handler closes it.
func (f *MQTTFactory) New() (handler.Handler, error) {
	opts := paho.NewClientOptions().AddBroker(f.cfg.Broker).SetClientID(f.cfg.ClientID)
	if f.cfg.Username != "" {
		opts.SetUsername(f.cfg.Username)
	}
	if f.cfg.Password != "" {
		opts.SetPassword(f.cfg.Password)
	}
	cli := newMQTTClient(opts)
	tok := cli.Connect()
	if !tok.WaitTimeout(time.Duration(f.cfg.ConnectTimeoutSeconds) * time.Second) {
		return nil, errors.New("mqtt connect timed out")
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTHandler{cli: cli, cfg: f.cfg}, nil
}

type mqttChannelPayload struct {
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body"`
}

// MQTTHandler publishes one payload to a broker topic.
type MQTTHandler struct {
	cli mqttClient
	cfg MQTTConfig
}

func (h *MQTTHandler) Handle(ctx context.Context, payload []byte) (handler.Result, error) {
	defer h.cli.Disconnect(250)

	var p mqttChannelPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return handler.Result{}, fmt.Errorf("invalid mqtt payload: %w", err)
	}
	topic := p.Topic
	if topic == "" {
		topic = h.cfg.DefaultTopic
	}
	if topic == "" {
		return handler.Result{}, errors.New("mqtt payload missing 'topic' and no default_topic configured")
	}

	tok := h.cli.Publish(topic, h.cfg.QoS, h.cfg.Retain, []byte(p.Body))
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return handler.Result{}, fmt.Errorf("mqtt publish to %s: %w", topic, err)
		}
		return handler.Result{Detail: fmt.Sprintf("published to %s", topic)}, nil
	case <-ctx.Done():
		return handler.Result{}, fmt.Errorf("mqtt publish aborted: %w", ctx.Err())
	}
}
