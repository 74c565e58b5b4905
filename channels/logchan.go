package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmottier/notihub/core/handler"
	"github.com/jmottier/notihub/core/logger"
)

type logPayload struct {
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields"`
}

// LogHandler writes the payload through the structured logger. Useful as a
// sink for development and as the cheapest possible channel in tests.
type LogHandler struct {
	log logger.Logger
}

// NewLogHandler creates a LogHandler writing to log.
func NewLogHandler(log logger.Logger) *LogHandler {
	if log == nil {
		log = logger.Nop{}
	}
	return &LogHandler{log: log}
}

// NewLogFactory returns a flat-strategy factory for log handlers.
func NewLogFactory(log logger.Logger) handler.Factory {
	return handler.FactoryFunc(func() (handler.Handler, error) {
		return NewLogHandler(log), nil
	})
}

func (h *LogHandler) Handle(_ context.Context, payload []byte) (handler.Result, error) {
	var p logPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return handler.Result{}, fmt.Errorf("invalid log payload: %w", err)
	}
	if p.Message == "" {
		return handler.Result{}, errors.New("log payload missing required field 'message'")
	}
	if len(p.Fields) > 0 {
		h.log.Debugw(p.Message, p.Fields)
	} else {
		h.log.Infof("%s", p.Message)
	}
	return handler.Result{Detail: "logged"}, nil
}
