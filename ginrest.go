package ginrest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rthib91/ginrest/apierr"
	"github.com/rthib91/ginrest/internal/fuzzy"
)

// Handler resolution sources, used as metric labels.
const (
	sourceHandler = "handler"
	sourceDefault = "default"
	sourceHTTP    = "http"
	sourceGeneric = "generic"
)

// maxSuggestions caps the number of routes offered in a 404 hint.
const maxSuggestions = 3

// API mounts JSON error routing on a Gin engine. It owns a route group at
// BasePath, a handler registry, and any namespaces created from it. Create
// instances with New during application setup; registration methods are not
// safe to call once requests are being served.
type API struct {
	engine *gin.Engine
	group  *gin.RouterGroup
	cfg    Config
	log    zerolog.Logger

	registry   registry
	namespaces []*Namespace
	routes     routeTable
	hooks      []ErrorHook
}

// Option customizes an API at construction time.
type Option func(*API)

// WithLogger overrides the logger used for unhandled errors and handler
// failures. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *API) { a.log = l }
}

// New attaches an API to engine at cfg.BasePath. It enables method-not-
// allowed handling and installs the NoRoute/NoMethod fallbacks plus the
// error-dispatch middleware for every route registered through the API.
func New(engine *gin.Engine, cfg Config, opts ...Option) *API {
	cfg.BasePath = normalizeBasePath(cfg.BasePath)
	if cfg.Realm == "" {
		cfg.Realm = "ginrest"
	}
	a := &API{
		engine: engine,
		cfg:    cfg,
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(a)
	}

	engine.HandleMethodNotAllowed = true
	engine.NoRoute(a.noRoute)
	engine.NoMethod(a.noMethod)

	a.group = groupWithPrefix(engine, cfg.BasePath)
	a.group.Use(a.dispatch())
	if cfg.BasePath != "/" {
		a.routes.addPrefix(cfg.BasePath)
	}
	return a
}

// ErrorHandler binds h to errors matching target. Sentinels match by value
// anywhere in a wrapped chain; distinctive error types match every instance
// of the type, so a handler for a base error also covers derived errors
// lacking a more specific registration.
func (a *API) ErrorHandler(target error, h Handler) {
	a.registry.register(target, h)
}

// DefaultErrorHandler installs the handler used when no registered target
// matches, replacing the built-in generic formatting.
func (a *API) DefaultErrorHandler(h Handler) {
	a.registry.register(nil, h)
}

// Handle registers a route through the API group and records it in the
// route table for ownership checks, Allow sets, and 404 suggestions.
func (a *API) Handle(method, relativePath string, handlers ...gin.HandlerFunc) {
	a.routes.add(method, joinPaths(a.cfg.BasePath, relativePath))
	a.group.Handle(method, relativePath, handlers...)
}

func (a *API) GET(path string, handlers ...gin.HandlerFunc) {
	a.Handle(http.MethodGet, path, handlers...)
}

func (a *API) POST(path string, handlers ...gin.HandlerFunc) {
	a.Handle(http.MethodPost, path, handlers...)
}

func (a *API) PUT(path string, handlers ...gin.HandlerFunc) {
	a.Handle(http.MethodPut, path, handlers...)
}

func (a *API) PATCH(path string, handlers ...gin.HandlerFunc) {
	a.Handle(http.MethodPatch, path, handlers...)
}

func (a *API) DELETE(path string, handlers ...gin.HandlerFunc) {
	a.Handle(http.MethodDelete, path, handlers...)
}

// dispatch is the per-route middleware that funnels request failures into
// the error router: panics (including apierr.Abort) are recovered, and
// errors recorded via c.Error are picked up after the chain runs.
func (a *API) dispatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				a.errorRouter(c, recoveredError(rec))
			}
		}()
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			a.errorRouter(c, c.Errors.Last().Err)
		}
	}
}

// errorRouter renders err through HandleError. A failure inside a custom
// handler is logged and delegated to the framework fallback, so a programming
// error in a handler surfaces instead of being swallowed. Propagation
// requests re-panic the original error to the caller.
func (a *API) errorRouter(c *gin.Context, err error) {
	resp, ferr := a.HandleError(c, err)
	if ferr == nil {
		writeResponse(c, resp)
		return
	}
	var pe *propagationError
	if errors.As(ferr, &pe) {
		panic(pe.err)
	}
	a.logger(c).Error().
		Err(ferr).
		Str("cause", err.Error()).
		Msg("error handler failed")
	_ = c.Error(ferr)
	c.AbortWithStatus(http.StatusInternalServerError)
}

// HandleError resolves err to a normalized Response without writing it.
//
// Resolution order: the owning namespace's handlers, then API-level
// handlers, then the registered default handler. Without any handler, an
// HTTP-style error maps to its declared status and description, and
// anything else to a generic 500. The returned error is non-nil when a
// custom handler failed (the caller decides how to fall back) or when the
// error should propagate to the caller per configuration.
func (a *API) HandleError(c *gin.Context, err error) (Response, error) {
	httpErr, isHTTP := apierr.From(err)

	h, src := a.resolve(c, err)
	if h == nil {
		a.notify(c, err)
		if !isHTTP && a.propagate() {
			return Response{}, &propagationError{err: err}
		}
	}

	var resp Response
	switch {
	case h != nil:
		r, herr := invokeHandler(h, err)
		if herr != nil {
			handlerFailures.Inc()
			return Response{}, herr
		}
		resp = r.normalized()

	case isHTTP:
		src = sourceHTTP
		status := httpErr.Status
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}
		body := map[string]any{}
		if a.cfg.IncludeMessage {
			msg := httpErr.Message
			if msg == "" {
				msg = apierr.Description(status)
			}
			body["message"] = msg
		}
		resp = Response{Status: status, Body: body, Headers: cloneHeader(httpErr.Headers)}.normalized()

	default:
		src = sourceGeneric
		a.logger(c).Error().Err(err).Msg("unhandled error during request")
		body := map[string]any{}
		if a.cfg.IncludeMessage {
			body["message"] = http.StatusText(http.StatusInternalServerError)
		}
		resp = Response{Status: http.StatusInternalServerError, Body: body}.normalized()
	}

	// A data payload on the error value overrides any computed body.
	if isHTTP && httpErr.Data != nil {
		resp.Body = cloneData(httpErr.Data)
	}

	if resp.Status == http.StatusNotFound && a.cfg.Error404Help && a.cfg.IncludeMessage {
		if body, ok := resp.Body.(map[string]any); ok {
			if hint := a.helpOn404(c); hint != "" {
				msg, _ := body["message"].(string)
				body["message"] = msg + hint
			}
		}
	}

	if resp.Status == http.StatusUnauthorized && a.cfg.ServeChallengeOn401 {
		resp.Headers.Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", a.cfg.Realm))
	}

	observeRouted(resp.Status, src)
	return resp, nil
}

// resolve picks the handler for err: owning namespace first, then the API
// registry, then the registered default.
func (a *API) resolve(c *gin.Context, err error) (Handler, string) {
	if ns := a.namespaceFor(c); ns != nil {
		if h, ok := ns.registry.lookup(err); ok {
			return h, sourceHandler
		}
	}
	if h, ok := a.registry.lookup(err); ok {
		return h, sourceHandler
	}
	if a.registry.fallback != nil {
		return a.registry.fallback, sourceDefault
	}
	return nil, ""
}

// namespaceFor returns the namespace whose mount prefix covers the request
// path, preferring the longest match.
func (a *API) namespaceFor(c *gin.Context) *Namespace {
	if c == nil || c.Request == nil {
		return nil
	}
	path := c.Request.URL.Path
	var best *Namespace
	for _, ns := range a.namespaces {
		if !ns.covers(path) {
			continue
		}
		if best == nil || len(ns.path) > len(best.path) {
			best = ns
		}
	}
	return best
}

// propagate reports whether unhandled non-HTTP errors should re-panic to
// the caller: explicit configuration wins, otherwise gin debug mode implies
// propagation the way a framework debugger expects.
func (a *API) propagate() bool {
	if a.cfg.PropagateExceptions != nil {
		return *a.cfg.PropagateExceptions
	}
	return gin.Mode() == gin.DebugMode
}

// helpOn404 builds the "did you mean" hint for the failing request path, or
// "" when no registered route is close enough.
func (a *API) helpOn404(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	path := c.Request.URL.Path
	matches := fuzzy.CloseMatches(path, a.routes.patterns(), maxSuggestions, 0)
	if len(matches) == 0 {
		return ""
	}
	return ". You have requested this URI [" + path +
		"] but did you mean " + strings.Join(matches, " or ") + " ?"
}

// noRoute formats unmatched paths as JSON 404s when the API owns them (or
// catch-all is on); anything else is left to the framework default.
func (a *API) noRoute(c *gin.Context) {
	if !a.cfg.CatchAll404s && !a.routes.owns(c.Request.URL.Path) {
		return
	}
	a.errorRouter(c, apierr.NotFound())
}

// noMethod formats method mismatches on owned paths as JSON 405s carrying
// the Allow set of the matched route.
func (a *API) noMethod(c *gin.Context) {
	path := c.Request.URL.Path
	if !a.cfg.CatchAll404s && !a.routes.owns(path) {
		return
	}
	e := apierr.MethodNotAllowed()
	if allow := a.routes.allowed(path); len(allow) > 0 {
		e.WithHeader("Allow", strings.Join(allow, ", "))
	}
	a.errorRouter(c, e)
}

// logger returns the request-scoped logger when middleware attached one,
// falling back to the API logger.
func (a *API) logger(c *gin.Context) *zerolog.Logger {
	if c != nil {
		if v, ok := c.Get("logger"); ok {
			if lg, ok := v.(*zerolog.Logger); ok {
				return lg
			}
		}
	}
	return &a.log
}

// propagationError asks the caller of HandleError to re-raise the original
// error instead of rendering it.
type propagationError struct{ err error }

func (p *propagationError) Error() string { return "propagating: " + p.err.Error() }
func (p *propagationError) Unwrap() error { return p.err }

// invokeHandler runs a custom handler, converting a panic into a returned
// failure so the router can fall back without masking it.
func invokeHandler(h Handler, err error) (resp Response, failure error) {
	defer func() {
		if rec := recover(); rec != nil {
			failure = recoveredError(rec)
		}
	}()
	return h(err), nil
}

// recoveredError normalizes a recovered panic value into an error.
func recoveredError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPaths concatenates a mount prefix and a relative path.
func joinPaths(base, rel string) string {
	if rel != "" && !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	if base == "" || base == "/" {
		if rel == "" {
			return "/"
		}
		return rel
	}
	return strings.TrimSuffix(base, "/") + rel
}
