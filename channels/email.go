package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jmottier/notihub/core/handler"
)

// EmailConfig holds SMTP connection details.
type EmailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	From     string `json:"from"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type emailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailHandler sends a message via SMTP.
type EmailHandler struct {
	cfg EmailConfig
}

// NewEmailHandler creates an EmailHandler from config.
func NewEmailHandler(cfg EmailConfig) *EmailHandler {
	return &EmailHandler{cfg: cfg}
}

// NewEmailFactory returns a flat-strategy factory producing one EmailHandler
// per dispatch.
func NewEmailFactory(cfg EmailConfig) handler.Factory {
	return handler.FactoryFunc(func() (handler.Handler, error) {
		return NewEmailHandler(cfg), nil
	})
}

func (h *EmailHandler) Handle(ctx context.Context, payload []byte) (handler.Result, error) {
	var p emailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return handler.Result{}, fmt.Errorf("invalid email payload: %w", err)
	}
	if p.To == "" {
		return handler.Result{}, errors.New("email payload missing required field 'to'")
	}

	addr := fmt.Sprintf("%s:%d", h.cfg.Host, h.cfg.Port)
	msg := buildMIME(h.cfg.From, p.To, p.Subject, p.Body)

	var auth smtp.Auth
	if h.cfg.Username != "" {
		auth = smtp.PlainAuth("", h.cfg.Username, h.cfg.Password, h.cfg.Host)
	}

	// smtp.SendMail has no context support; run it in a goroutine so the
	// deadline is still honored.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, h.cfg.From, []string{p.To}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return handler.Result{}, fmt.Errorf("smtp send to %s: %w", p.To, err)
		}
		return handler.Result{Detail: fmt.Sprintf("sent to %s", p.To)}, nil
	case <-ctx.Done():
		return handler.Result{}, fmt.Errorf("email send aborted: %w", ctx.Err())
	}
}

func buildMIME(from, to, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body,
	)
	return []byte(msg)
}
