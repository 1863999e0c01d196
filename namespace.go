package ginrest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Namespace is a grouping of routes nested under an API that carries its
// own error-handler registry. Handlers registered on a namespace are
// consulted before the API-level ones for any request under its mount
// prefix, so each namespace can shape its own failure responses without
// leaking them into the rest of the API.
type Namespace struct {
	name string
	path string // absolute mount prefix
	api  *API

	group    *gin.RouterGroup
	registry registry
}

// Namespace creates a route group under the API. relativePath defaults to
// "/<name>" when empty; a path of "/" shares the API mount itself.
func (a *API) Namespace(name, relativePath string) *Namespace {
	if relativePath == "" {
		relativePath = "/" + name
	}
	ns := &Namespace{
		name:  name,
		path:  joinPaths(a.cfg.BasePath, relativePath),
		api:   a,
		group: a.group.Group(relativePath),
	}
	if ns.path != "/" {
		a.routes.addPrefix(ns.path)
	}
	a.namespaces = append(a.namespaces, ns)
	return ns
}

// Name returns the namespace identifier used at creation.
func (ns *Namespace) Name() string { return ns.name }

// ErrorHandler binds h to errors matching target for routes under this
// namespace only. Matching follows the same identity rules as the
// API-level registry.
func (ns *Namespace) ErrorHandler(target error, h Handler) {
	ns.registry.register(target, h)
}

// Handle registers a route under the namespace and records it in the API
// route table.
func (ns *Namespace) Handle(method, relativePath string, handlers ...gin.HandlerFunc) {
	ns.api.routes.add(method, joinPaths(ns.path, relativePath))
	ns.group.Handle(method, relativePath, handlers...)
}

func (ns *Namespace) GET(path string, handlers ...gin.HandlerFunc) {
	ns.Handle(http.MethodGet, path, handlers...)
}

func (ns *Namespace) POST(path string, handlers ...gin.HandlerFunc) {
	ns.Handle(http.MethodPost, path, handlers...)
}

func (ns *Namespace) PUT(path string, handlers ...gin.HandlerFunc) {
	ns.Handle(http.MethodPut, path, handlers...)
}

func (ns *Namespace) PATCH(path string, handlers ...gin.HandlerFunc) {
	ns.Handle(http.MethodPatch, path, handlers...)
}

func (ns *Namespace) DELETE(path string, handlers ...gin.HandlerFunc) {
	ns.Handle(http.MethodDelete, path, handlers...)
}

// covers reports whether path falls under the namespace mount.
func (ns *Namespace) covers(path string) bool {
	if ns.path == "/" {
		return true
	}
	return path == ns.path || strings.HasPrefix(path, ns.path+"/")
}
