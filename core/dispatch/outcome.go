package dispatch

import "github.com/jmottier/notihub/core/handler"

// Outcome is the tagged result of a dispatch call. Exactly one of Result and
// Err is populated.
type Outcome struct {
	Result handler.Result
	Err    *handler.Error
}

// Success wraps a handler result.
func Success(res handler.Result) Outcome { return Outcome{Result: res} }

// Failure wraps a typed error.
func Failure(err *handler.Error) Outcome { return Outcome{Err: err} }

// OK reports whether the dispatch succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind returns the failure kind, or the empty string on success.
func (o Outcome) Kind() handler.Kind {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind
}
