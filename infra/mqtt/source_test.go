package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmottier/notihub/core/dispatch"
	"github.com/jmottier/notihub/core/handler"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakePahoClient struct {
	published chan []byte
	topics    chan string
}

func newFakePahoClient() *fakePahoClient {
	return &fakePahoClient{published: make(chan []byte, 4), topics: make(chan string, 4)}
}

func (c *fakePahoClient) IsConnected() bool   { return true }
func (c *fakePahoClient) Connect() paho.Token { return &fakeToken{} }
func (c *fakePahoClient) Disconnect(uint)     {}
func (c *fakePahoClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	c.topics <- topic
	c.published <- payload.([]byte)
	return &fakeToken{}
}
func (c *fakePahoClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return &fakeToken{}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakeDispatcher struct {
	out      dispatch.Outcome
	channels chan string
	payloads chan []byte
}

func newFakeDispatcher(out dispatch.Outcome) *fakeDispatcher {
	return &fakeDispatcher{out: out, channels: make(chan string, 4), payloads: make(chan []byte, 4)}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, channel string, payload []byte) dispatch.Outcome {
	d.channels <- channel
	d.payloads <- payload
	return d.out
}

func recvPublished(t *testing.T, c *fakePahoClient) (string, []byte) {
	t.Helper()
	select {
	case topic := <-c.topics:
		return topic, <-c.published
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published response")
		return "", nil
	}
}

func TestSource_RequestToResponse(t *testing.T) {
	cli := newFakePahoClient()
	disp := newFakeDispatcher(dispatch.Success(handler.Result{
		MessageID: "m-1", Channel: "email", Detail: "sent",
	}))

	src := NewSource(Config{Broker: "tcp://localhost:1883", ResultTopic: "notihub/results"}, disp)
	src.cli = cli
	src.ctx = context.Background()

	src.onRequest(nil, &fakeMessage{topic: "notihub/requests", payload: []byte(
		`{"id":"r-1","channel":"email","payload":{"to":"a@b.c"}}`,
	)})

	topic, body := recvPublished(t, cli)
	assert.Equal(t, "notihub/results", topic)

	var resp response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "r-1", resp.ID)
	assert.True(t, resp.OK)
	assert.Equal(t, "m-1", resp.MessageID)
	assert.Equal(t, "email", resp.Channel)
	assert.Equal(t, "sent", resp.Detail)

	assert.Equal(t, "email", <-disp.channels)
	assert.JSONEq(t, `{"to":"a@b.c"}`, string(<-disp.payloads))
}

func TestSource_FailureResponseCarriesKind(t *testing.T) {
	cli := newFakePahoClient()
	disp := newFakeDispatcher(dispatch.Failure(handler.NewError(
		handler.KindUnknownType, "fax", errors.New("not registered"),
	)))

	src := NewSource(Config{Broker: "tcp://localhost:1883", ResultTopic: "notihub/results"}, disp)
	src.cli = cli
	src.ctx = context.Background()

	src.onRequest(nil, &fakeMessage{payload: []byte(`{"id":"r-2","channel":"fax","payload":{}}`)})

	_, body := recvPublished(t, cli)
	var resp response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "UnknownTypeError", resp.Kind)
	assert.Contains(t, resp.Error, "not registered")
	assert.Empty(t, resp.MessageID)
}

func TestSource_NoResultTopic(t *testing.T) {
	cli := newFakePahoClient()
	disp := newFakeDispatcher(dispatch.Success(handler.Result{MessageID: "m-1"}))

	src := NewSource(Config{Broker: "tcp://localhost:1883"}, disp)
	src.cli = cli
	src.ctx = context.Background()

	src.onRequest(nil, &fakeMessage{payload: []byte(`{"channel":"email","payload":{}}`)})

	select {
	case ch := <-disp.channels:
		assert.Equal(t, "email", ch)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch was never invoked")
	}
	select {
	case <-cli.topics:
		t.Fatal("response published despite empty result topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSource_DropsMalformedRequest(t *testing.T) {
	cli := newFakePahoClient()
	disp := newFakeDispatcher(dispatch.Success(handler.Result{}))

	src := NewSource(Config{Broker: "tcp://localhost:1883"}, disp)
	src.cli = cli

	src.onRequest(nil, &fakeMessage{payload: []byte(`{not json`)})

	select {
	case <-disp.channels:
		t.Fatal("malformed request reached the dispatcher")
	case <-time.After(50 * time.Millisecond):
	}
}

type retainedDeliveryClient struct {
	*fakePahoClient
	deliver func()
}

func (c *retainedDeliveryClient) Connect() paho.Token {
	c.deliver()
	return &fakeToken{}
}

func TestSource_RetainedRequestDuringConnect(t *testing.T) {
	disp := newFakeDispatcher(dispatch.Success(handler.Result{MessageID: "m-9", Channel: "email"}))
	src := NewSource(Config{Broker: "tcp://localhost:1883", ResultTopic: "notihub/results"}, disp)

	cli := &retainedDeliveryClient{fakePahoClient: newFakePahoClient()}
	cli.deliver = func() {
		src.onRequest(nil, &fakeMessage{payload: []byte(`{"id":"r-9","channel":"email","payload":{}}`)})
	}
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return cli }
	t.Cleanup(func() { newMQTTClient = orig })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = src.Start(ctx) }()

	_, body := recvPublished(t, cli.fakePahoClient)
	var resp response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "r-9", resp.ID)
	assert.True(t, resp.OK)
}

func TestSource_StartConnectError(t *testing.T) {
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient {
		return &failingConnectClient{}
	}
	t.Cleanup(func() { newMQTTClient = orig })

	src := NewSource(Config{Broker: "tcp://localhost:1883"}, newFakeDispatcher(dispatch.Outcome{}))
	err := src.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

type failingConnectClient struct{ fakePahoClient }

func (c *failingConnectClient) Connect() paho.Token {
	return &fakeToken{err: errors.New("connection refused")}
}
