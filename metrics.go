package ginrest

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// errorsRouted counts errors formatted by the router, by response status
	// and by how the handler was resolved: "handler" for registered custom
	// handlers, "default" for the registered default handler, "http" for
	// HTTP-style errors without a handler, and "generic" for everything
	// else. Cardinality stays bounded: statuses are finite and sources are
	// a fixed set.
	errorsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ginrest_errors_routed_total",
			Help: "Total number of request errors translated to JSON responses.",
		},
		[]string{"status", "source"},
	)

	// handlerFailures counts custom handlers that themselves failed and fell
	// back to the framework handler. A nonzero value means a programming
	// error in an error handler.
	handlerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ginrest_handler_failures_total",
			Help: "Total number of error handlers that panicked while handling an error.",
		},
	)
)

func init() {
	prometheus.MustRegister(errorsRouted, handlerFailures)
}

// observeRouted records one formatted error response.
func observeRouted(status int, source string) {
	errorsRouted.WithLabelValues(strconv.Itoa(status), source).Inc()
}
