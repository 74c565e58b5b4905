// Package registry provides the generic mapping from channel type identifier
// to registered value, typically a handler.Factory. It is the only shared
// mutable structure in the dispatch core and is guarded by a single RWMutex:
// registrations are linearizable with respect to lookups.
//
// Example usage:
//
//	reg := registry.New[handler.Factory]()
//	err := reg.Register("email", handler.FactoryFunc(func() (handler.Handler, error) {
//	    return channels.NewEmailHandler(cfg), nil
//	}), false)
//	f, err := reg.Lookup("email")
package registry
