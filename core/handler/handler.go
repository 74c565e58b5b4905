package handler

import "context"

// Handler delivers a single payload over one notification channel.
// Implementations decode the payload into their own shape and perform the
// actual send. Handle must honor the context deadline where possible.
type Handler interface {
	Handle(ctx context.Context, payload []byte) (Result, error)
}

// Result describes a completed delivery.
type Result struct {
	MessageID string `json:"message_id"`
	Channel   string `json:"channel"`
	Detail    string `json:"detail,omitempty"`
}

// Factory produces one fresh Handler per call. Factories are the single
// extension point: adding a channel means binding a new (type, Factory) pair
// in the registry, never editing dispatch code.
type Factory interface {
	New() (Handler, error)
}

// FactoryFunc adapts a plain constructor closure to the Factory interface.
// This is the flat registration strategy; dedicated factory types carrying
// construction state (connections, credentials) are the delegated strategy.
// Both are indistinguishable to the dispatcher.
type FactoryFunc func() (Handler, error)

// New calls f.
func (f FactoryFunc) New() (Handler, error) { return f() }

// Func adapts a function to the Handler interface.
type Func func(ctx context.Context, payload []byte) (Result, error)

// Handle calls f.
func (f Func) Handle(ctx context.Context, payload []byte) (Result, error) {
	return f(ctx, payload)
}
