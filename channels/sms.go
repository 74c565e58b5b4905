package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmottier/notihub/core/handler"
)

// SMSConfig holds the HTTP gateway settings used to deliver text messages.
type SMSConfig struct {
	GatewayURL     string `json:"gateway_url"`
	APIKey         string `json:"api_key"`
	Sender         string `json:"sender"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *SMSConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c SMSConfig) Validate() error {
	if c.GatewayURL == "" {
		return errors.New("gateway_url is required")
	}
	return nil
}

type smsPayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SMSHandler posts a form-encoded request to an SMS gateway.
type SMSHandler struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSHandler creates an SMSHandler from config.
func NewSMSHandler(cfg SMSConfig) *SMSHandler {
	cfg.SetDefaults()
	return &SMSHandler{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// NewSMSFactory returns a flat-strategy factory for SMS handlers. The config
// is validated once at registration time, not per dispatch.
func NewSMSFactory(cfg SMSConfig) (handler.Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return handler.FactoryFunc(func() (handler.Handler, error) {
		return NewSMSHandler(cfg), nil
	}), nil
}

func (h *SMSHandler) Handle(ctx context.Context, payload []byte) (handler.Result, error) {
	var p smsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return handler.Result{}, fmt.Errorf("invalid sms payload: %w", err)
	}
	if p.To == "" {
		return handler.Result{}, errors.New("sms payload missing required field 'to'")
	}
	if p.Text == "" {
		return handler.Result{}, errors.New("sms payload missing required field 'text'")
	}

	form := url.Values{}
	form.Set("to", p.To)
	form.Set("text", p.Text)
	if h.cfg.Sender != "" {
		form.Set("from", h.cfg.Sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return handler.Result{}, fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return handler.Result{}, fmt.Errorf("sms gateway call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return handler.Result{}, fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return handler.Result{Detail: fmt.Sprintf("sms queued for %s", p.To)}, nil
}
