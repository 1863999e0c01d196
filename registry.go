package ginrest

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/rthib91/ginrest/apierr"
)

// Handler is a user-supplied function that turns a routed error into a
// response. Returning a zero-value Status defaults to 500 and nil Headers to
// an empty set, so handlers only fill in what they care about.
type Handler func(err error) Response

// Response is the normalized outcome of error handling: a JSON-serializable
// body, an HTTP status, and optional extra headers.
type Response struct {
	Body    any
	Status  int
	Headers http.Header
}

// normalized fills the defaults a handler is allowed to omit.
func (r Response) normalized() Response {
	if r.Status < 100 || r.Status > 599 {
		r.Status = http.StatusInternalServerError
	}
	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	return r
}

// genericErrType is the dynamic type shared by every errors.New value.
// Sentinels of this type carry no identity in their type, so they are only
// ever matched by value.
var genericErrType = reflect.TypeOf(errors.New(""))

type sentinelEntry struct {
	target     error
	comparable bool
	handler    Handler
}

// registry maps error identities to handlers. Two registration shapes are
// supported:
//
//   - sentinel values (errors.New or any comparable error value): matched by
//     equality against each link of the wrapped-error chain;
//   - distinctive error types (user-defined structs or pointers): matched by
//     dynamic type, so every instance of the type hits the same handler.
//
// Lookup walks the chain outermost to innermost and prefers type matches
// over sentinel matches at each link, which makes a handler registered for a
// wrapped base error apply to derived errors unless a more specific handler
// exists. Registration happens during application setup, before requests are
// served, so no locking is needed on the read path.
type registry struct {
	types     map[reflect.Type]Handler
	statuses  map[int]Handler
	sentinels []sentinelEntry
	fallback  Handler
}

// register binds a handler to the identity of target. A nil target installs
// the default handler consulted when nothing else matches.
//
// HTTP-style errors are special: every *apierr.Error shares one dynamic
// type, so their identity is the declared status code instead.
func (r *registry) register(target error, h Handler) {
	if target == nil {
		r.fallback = h
		return
	}
	if he, ok := target.(*apierr.Error); ok {
		if r.statuses == nil {
			r.statuses = make(map[int]Handler)
		}
		r.statuses[he.Status] = h
		return
	}
	t := reflect.TypeOf(target)
	if t != genericErrType {
		if r.types == nil {
			r.types = make(map[reflect.Type]Handler)
		}
		r.types[t] = h
	}
	r.sentinels = append(r.sentinels, sentinelEntry{
		target:     target,
		comparable: t.Comparable(),
		handler:    h,
	})
}

// lookup resolves err against the registered handlers, walking the wrapped
// chain from most to least specific. First match wins. The default handler
// is not consulted here; callers decide when to fall back.
func (r *registry) lookup(err error) (Handler, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if he, ok := e.(*apierr.Error); ok {
			if h, ok := r.statuses[he.Status]; ok {
				return h, true
			}
			continue
		}
		t := reflect.TypeOf(e)
		if h, ok := r.types[t]; ok {
			return h, true
		}
		for _, s := range r.sentinels {
			if s.comparable && t == reflect.TypeOf(s.target) && e == s.target {
				return s.handler, true
			}
		}
	}
	return nil, false
}
