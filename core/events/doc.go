// Package events defines the events emitted on the internal event bus.
//
// Available event types:
//   - DispatchEvent: outcome of a single dispatch call
package events
