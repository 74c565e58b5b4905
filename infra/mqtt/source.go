package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/jmottier/notihub/core/dispatch"
	"github.com/jmottier/notihub/infra/logger"
)

// Dispatcher is the part of the dispatch core the source consumes.
type Dispatcher interface {
	Dispatch(ctx context.Context, channel string, payload []byte) dispatch.Outcome
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// request is the wire format consumed from the request topic.
type request struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// response is published on the result topic when one is configured. Kind
// carries the stable failure tag so consumers can map it to their own
// surface.
type response struct {
	ID        string `json:"id,omitempty"`
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id,omitempty"`
	Channel   string `json:"channel"`
	Detail    string `json:"detail,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Source feeds the dispatcher with requests arriving on an MQTT topic. It is
// an external collaborator of the dispatch core: it owns the wire format and
// the mapping of outcomes onto it.
type Source struct {
	cfg  Config
	disp Dispatcher
	log  logger.Logger
	cli  pahoClient
	ctx  context.Context
}

// NewSource creates a Source. Connection happens in Start.
func NewSource(cfg Config, disp Dispatcher) *Source {
	cfg.SetDefaults()
	return &Source{cfg: cfg, disp: disp, log: logger.New("mqtt-source")}
}

// Start connects to the broker, subscribes to the request topic and blocks
// until the context is canceled.
func (s *Source) Start(ctx context.Context) error {
	s.ctx = ctx
	opts, err := NewClientOptions(s.cfg)
	if err != nil {
		return err
	}
	opts.OnConnect = func(c paho.Client) {
		s.log.Infof("MQTT connected, subscribing to %s", s.cfg.RequestTopic)
		if token := c.Subscribe(s.cfg.RequestTopic, *s.cfg.QoS, s.onRequest); token.Wait() && token.Error() != nil {
			s.log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		s.log.Errorf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	// s.cli must be set before Connect: the broker may deliver retained
	// requests as soon as the subscription is active, and handle publishes
	// responses through s.cli.
	s.cli = cli
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	<-ctx.Done()
	cli.Disconnect(250)
	return nil
}

func (s *Source) onRequest(_ paho.Client, msg paho.Message) {
	var req request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		s.log.Warnf("drop malformed request on %s: %v", msg.Topic(), err)
		return
	}
	go s.handle(req)
}

func (s *Source) handle(req request) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	out := s.disp.Dispatch(ctx, req.Channel, req.Payload)
	if s.cfg.ResultTopic == "" {
		return
	}
	resp := response{ID: req.ID, OK: out.OK(), Channel: req.Channel}
	if out.OK() {
		resp.MessageID = out.Result.MessageID
		resp.Detail = out.Result.Detail
	} else {
		resp.Kind = string(out.Kind())
		resp.Error = out.Err.Error()
	}
	body, err := json.Marshal(resp)
	if err != nil {
		s.log.Errorf("encode response: %v", err)
		return
	}
	if token := s.cli.Publish(s.cfg.ResultTopic, *s.cfg.QoS, false, body); token.Wait() && token.Error() != nil {
		s.log.Errorf("publish response: %v", token.Error())
	}
}
