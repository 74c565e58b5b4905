// Package handler defines the polymorphic boundary of the dispatch core: the
// Handler capability every channel implements, the Factory contract that
// produces a fresh handler per dispatch, and the typed error taxonomy shared
// by the registry and the dispatcher.
package handler
