package events

import (
	"time"

	"github.com/jmottier/notihub/core/handler"
)

// DispatchEvent is published on the event bus after every dispatch call,
// successful or not. Kind is empty on success.
type DispatchEvent struct {
	MessageID string
	Channel   string
	OK        bool
	Kind      handler.Kind
	Err       string
	Duration  time.Duration
	Time      time.Time
}
