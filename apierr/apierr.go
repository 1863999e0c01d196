// Package apierr defines HTTP-style error values used by the error-routing
// layer. An *Error carries a declared status code, a human-readable message,
// optional extra response headers, and an optional data payload that replaces
// the default JSON body.
//
// Conventions:
//   - Constructors exist for the common client and server statuses and come
//     pre-filled with a default description, so `return apierr.NotFound()`
//     is enough to produce a well-formed JSON 404.
//   - Builders (WithMessage, WithHeader, WithData) return the receiver to
//     allow chaining at the call site.
//   - Abort panics with an *Error; the routing middleware recovers it and
//     formats the response. Handlers that prefer explicit control flow can
//     return the *Error through gin's c.Error instead.
//
// Example:
//
//	return apierr.New(http.StatusConflict, "feedback already exists")
//	apierr.Abort(http.StatusNotFound, "no such chat")
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error with HTTP response semantics attached.
//
// Status is the HTTP status code to emit. Message is the human-readable
// description placed under the "message" key of the JSON body. Headers, when
// non-nil, are merged into the response. Data, when non-nil, replaces the
// default {"message": ...} body entirely.
type Error struct {
	Status  int
	Message string
	Headers http.Header
	Data    map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if s := http.StatusText(e.Status); s != "" {
		return fmt.Sprintf("%d %s", e.Status, s)
	}
	return fmt.Sprintf("http error %d", e.Status)
}

// WithMessage overrides the default description and returns e.
func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

// WithHeader adds a response header and returns e.
func (e *Error) WithHeader(key, value string) *Error {
	if e.Headers == nil {
		e.Headers = http.Header{}
	}
	e.Headers.Set(key, value)
	return e
}

// WithData attaches a body override and returns e. When set, the payload is
// serialized as the JSON body instead of the default message envelope.
func (e *Error) WithData(data map[string]any) *Error {
	e.Data = data
	return e
}

// WithField sets a single key of the body override and returns e.
func (e *Error) WithField(key string, value any) *Error {
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	e.Data[key] = value
	return e
}

// New returns an *Error with the given status and message. An empty message
// falls back to the default description for the status.
func New(status int, message string) *Error {
	if message == "" {
		message = Description(status)
	}
	return &Error{Status: status, Message: message}
}

// From reports whether err carries HTTP semantics, unwrapping as needed.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Abort panics with an *Error for the given status. The error-dispatch
// middleware recovers the panic and renders the JSON response, so Abort never
// returns. msg overrides the default description when non-empty.
func Abort(status int, msg string) {
	panic(New(status, msg))
}

// AbortWithData panics like Abort but attaches a body override, mirroring
// responses that need extra machine-readable fields.
func AbortWithData(status int, msg string, data map[string]any) {
	e := New(status, msg)
	if msg != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["message"] = msg
	}
	e.Data = data
	panic(e)
}

// descriptions maps common statuses to their conventional long-form
// descriptions, used when no explicit message is supplied.
var descriptions = map[int]string{
	http.StatusBadRequest:            "The browser (or proxy) sent a request that this server could not understand.",
	http.StatusUnauthorized:          "The server could not verify that you are authorized to access the URL requested. You either supplied the wrong credentials (e.g. a bad password), or your browser doesn't understand how to supply the credentials required.",
	http.StatusForbidden:             "You don't have the permission to access the requested resource. It is either read-protected or not readable by the server.",
	http.StatusNotFound:              "The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again.",
	http.StatusMethodNotAllowed:      "The method is not allowed for the requested URL.",
	http.StatusNotAcceptable:         "The resource identified by the request is only capable of generating response entities which have content characteristics not acceptable according to the accept headers sent in the request.",
	http.StatusConflict:              "A conflict happened while processing the request. The resource might have been modified while the request was being processed.",
	http.StatusGone:                  "The requested URL is no longer available on this server and there is no forwarding address.",
	http.StatusRequestEntityTooLarge: "The data value transmitted exceeds the capacity limit.",
	http.StatusUnsupportedMediaType:  "The server does not support the media type transmitted in the request.",
	http.StatusUnprocessableEntity:   "The request was well-formed but was unable to be followed due to semantic errors.",
	http.StatusTooManyRequests:       "This user has exceeded an allotted request count. Try again later.",
	http.StatusInternalServerError:   "The server encountered an internal error and was unable to complete your request. Either the server is overloaded or there is an error in the application.",
	http.StatusNotImplemented:        "The server does not support the action requested by the browser.",
	http.StatusBadGateway:            "The proxy server received an invalid response from an upstream server.",
	http.StatusServiceUnavailable:    "The server is temporarily unable to service your request due to maintenance downtime or capacity problems. Please try again later.",
	http.StatusGatewayTimeout:        "The connection to an upstream server timed out.",
}

// Description returns the default description for a status code, falling
// back to the standard status text for codes without a long-form entry.
func Description(status int) string {
	if d, ok := descriptions[status]; ok {
		return d
	}
	return http.StatusText(status)
}

// Common client errors.
func BadRequest() *Error          { return New(http.StatusBadRequest, "") }
func Unauthorized() *Error        { return New(http.StatusUnauthorized, "") }
func Forbidden() *Error           { return New(http.StatusForbidden, "") }
func NotFound() *Error            { return New(http.StatusNotFound, "") }
func MethodNotAllowed() *Error    { return New(http.StatusMethodNotAllowed, "") }
func NotAcceptable() *Error       { return New(http.StatusNotAcceptable, "") }
func Conflict() *Error            { return New(http.StatusConflict, "") }
func Gone() *Error                { return New(http.StatusGone, "") }
func UnprocessableEntity() *Error { return New(http.StatusUnprocessableEntity, "") }
func TooManyRequests() *Error     { return New(http.StatusTooManyRequests, "") }

// Common server errors.
func Internal() *Error           { return New(http.StatusInternalServerError, "") }
func NotImplemented() *Error     { return New(http.StatusNotImplemented, "") }
func BadGateway() *Error         { return New(http.StatusBadGateway, "") }
func ServiceUnavailable() *Error { return New(http.StatusServiceUnavailable, "") }
func GatewayTimeout() *Error     { return New(http.StatusGatewayTimeout, "") }
