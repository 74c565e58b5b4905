package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmottier/notihub/core/handler"
)

// WebhookConfig controls the outbound HTTP client.
type WebhookConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *WebhookConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
}

type webhookPayload struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// WebhookHandler makes an outbound HTTP call.
type WebhookHandler struct {
	client *http.Client
}

// NewWebhookHandler creates a WebhookHandler from config.
func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	cfg.SetDefaults()
	return &WebhookHandler{
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// NewWebhookFactory returns a flat-strategy factory for webhook handlers.
func NewWebhookFactory(cfg WebhookConfig) handler.Factory {
	return handler.FactoryFunc(func() (handler.Handler, error) {
		return NewWebhookHandler(cfg), nil
	})
}

func (h *WebhookHandler) Handle(ctx context.Context, payload []byte) (handler.Result, error) {
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return handler.Result{}, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if p.URL == "" {
		return handler.Result{}, errors.New("webhook payload missing required field 'url'")
	}
	if p.Method == "" {
		p.Method = http.MethodPost
	}

	var bodyReader io.Reader
	if p.Body != "" {
		bodyReader = strings.NewReader(p.Body)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, bodyReader)
	if err != nil {
		return handler.Result{}, fmt.Errorf("build webhook request: %w", err)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return handler.Result{}, fmt.Errorf("webhook call to %s: %w", p.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return handler.Result{}, fmt.Errorf("webhook %s returned status %d", p.URL, resp.StatusCode)
	}
	return handler.Result{Detail: fmt.Sprintf("%s %s: %d", p.Method, p.URL, resp.StatusCode)}, nil
}
