package ginrest

import (
	"sort"
	"strings"
	"sync"
)

// route is one registered method+pattern pair. Patterns use gin syntax:
// ":name" matches a single segment, "*name" matches the rest of the path.
type route struct {
	method   string
	pattern  string
	segments []string
}

// routeTable records every route and mount prefix owned by an API instance.
// It answers three questions the error router needs: does a failing path
// belong to us, which methods would have matched it, and what patterns exist
// for near-miss suggestions.
//
// Writes happen during application setup; reads happen per request. The
// RWMutex keeps the table safe for engines that register routes lazily.
type routeTable struct {
	mu       sync.RWMutex
	routes   []route
	prefixes []string
}

func (t *routeTable) add(method, pattern string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, route{
		method:   method,
		pattern:  pattern,
		segments: splitPath(pattern),
	})
}

func (t *routeTable) addPrefix(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefixes = append(t.prefixes, prefix)
}

// owns reports whether path falls under a mount prefix or matches any
// registered route pattern.
func (t *routeTable) owns(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.prefixes {
		if p == "/" || p == "" || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	segs := splitPath(path)
	for _, r := range t.routes {
		if matchSegments(r.segments, segs) {
			return true
		}
	}
	return false
}

// allowed returns the Allow set for path: every method with a matching
// pattern, plus HEAD when GET is present and OPTIONS always. The result is
// sorted and empty when no route matches.
func (t *routeTable) allowed(path string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	segs := splitPath(path)
	set := make(map[string]struct{})
	for _, r := range t.routes {
		if matchSegments(r.segments, segs) {
			set[r.method] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	if _, ok := set["GET"]; ok {
		set["HEAD"] = struct{}{}
	}
	set["OPTIONS"] = struct{}{}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// patterns returns the distinct route patterns, used as candidates for the
// 404 "did you mean" hint.
func (t *routeTable) patterns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]struct{}, len(t.routes))
	var out []string
	for _, r := range t.routes {
		if _, ok := seen[r.pattern]; ok {
			continue
		}
		seen[r.pattern] = struct{}{}
		out = append(out, r.pattern)
	}
	return out
}

// splitPath breaks a path into its non-empty segments; trailing slashes do
// not produce an extra segment.
func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// matchSegments reports whether a pattern's segments match a concrete path.
// ":param" consumes one segment. "*splat" consumes the remainder but must
// consume at least one segment, matching gin, which does not route the bare
// prefix to a wildcard route.
func matchSegments(pattern, path []string) bool {
	for i, seg := range pattern {
		if strings.HasPrefix(seg, "*") {
			return len(path) > i
		}
		if i >= len(path) {
			return false
		}
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}
