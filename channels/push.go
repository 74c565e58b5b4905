package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmottier/notihub/core/handler"
)

// PushConfig holds the push provider endpoint settings.
type PushConfig struct {
	EndpointURL    string `json:"endpoint_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *PushConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c PushConfig) Validate() error {
	if c.EndpointURL == "" {
		return errors.New("endpoint_url is required")
	}
	return nil
}

type pushPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PushHandler posts a JSON notification to a push provider.
type PushHandler struct {
	cfg    PushConfig
	client *http.Client
}

// NewPushHandler creates a PushHandler from config.
func NewPushHandler(cfg PushConfig) *PushHandler {
	cfg.SetDefaults()
	return &PushHandler{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// NewPushFactory returns a flat-strategy factory for push handlers.
func NewPushFactory(cfg PushConfig) (handler.Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return handler.FactoryFunc(func() (handler.Handler, error) {
		return NewPushHandler(cfg), nil
	}), nil
}

func (h *PushHandler) Handle(ctx context.Context, payload []byte) (handler.Result, error) {
	var p pushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return handler.Result{}, fmt.Errorf("invalid push payload: %w", err)
	}
	if p.Token == "" {
		return handler.Result{}, errors.New("push payload missing required field 'token'")
	}

	body, err := json.Marshal(map[string]string{"token": p.Token, "title": p.Title, "body": p.Body})
	if err != nil {
		return handler.Result{}, fmt.Errorf("encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return handler.Result{}, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return handler.Result{}, fmt.Errorf("push provider call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return handler.Result{}, fmt.Errorf("push provider returned status %d", resp.StatusCode)
	}
	return handler.Result{Detail: "push accepted"}, nil
}
