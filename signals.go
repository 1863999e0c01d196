package ginrest

import "github.com/gin-gonic/gin"

// ErrorHook observes request errors that reach the router without a
// registered handler. Hooks run synchronously in registration order before
// the response is formatted; they must not write to the context.
//
// When a custom handler (including the default handler) matches, handling
// is considered final and hooks are not notified.
type ErrorHook func(c *gin.Context, err error)

// OnError registers a hook. Like handler registration, this is meant for
// application setup, before traffic is served.
func (a *API) OnError(hook ErrorHook) {
	a.hooks = append(a.hooks, hook)
}

// notify fires the registered hooks for an unhandled error.
func (a *API) notify(c *gin.Context, err error) {
	for _, hook := range a.hooks {
		hook(c, err)
	}
}
