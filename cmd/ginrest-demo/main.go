// Command ginrest-demo runs a small notes API that exercises the error
// routing layer: custom handlers for domain errors, a namespace with its own
// registry, 404 suggestions, and the full middleware stack (tracing, request
// IDs, structured logs, metrics, CORS, security headers, rate limiting).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rthib91/ginrest"
	"github.com/rthib91/ginrest/apierr"
	_ "github.com/rthib91/ginrest/docs"
	"github.com/rthib91/ginrest/internal/config"
	"github.com/rthib91/ginrest/internal/logging"
	"github.com/rthib91/ginrest/internal/observability"
	"github.com/rthib91/ginrest/middleware"
)

const version = "1.0.0"

// errNoteNotFound is the demo's domain error; a handler registered on the
// API turns it into a 404 with a machine-readable code.
var errNoteNotFound = errors.New("note not found")

// noteStore is a process-local store, enough to demonstrate error paths.
type noteStore struct {
	mu    sync.RWMutex
	notes map[string]string
}

func newNoteStore() *noteStore {
	return &noteStore{notes: map[string]string{
		"welcome": "hello from ginrest",
	}}
}

func (s *noteStore) get(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.notes[id]
	if !ok {
		return "", errNoteNotFound
	}
	return text, nil
}

func (s *noteStore) list() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.notes))
	for k, v := range s.notes {
		out[k] = v
	}
	return out
}

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()
	shutdownTraces, err := observability.Setup(ctx, observability.TraceConfig{
		Enabled:     cfg.OTEL.Enabled,
		Endpoint:    cfg.OTEL.Endpoint,
		Insecure:    cfg.OTEL.Insecure,
		ServiceName: cfg.OTEL.ServiceName,
		SampleRatio: cfg.OTEL.SampleRatio,
	}, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTraces(sctx); err != nil {
			log.Warn().Err(err).Msg("trace shutdown")
		}
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	// Trace first so every downstream log and error carries span context.
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))
	}

	rcfg := ginrest.FromEnv()
	if rcfg.BasePath == "/" {
		rcfg.BasePath = "/api/v1"
	}
	api := ginrest.New(r, rcfg)

	api.OnError(func(c *gin.Context, err error) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("unhandled api error")
	})
	api.ErrorHandler(errNoteNotFound, func(err error) ginrest.Response {
		return ginrest.Response{
			Status: http.StatusNotFound,
			Body:   gin.H{"message": err.Error(), "code": "note_not_found"},
		}
	})

	store := newNoteStore()
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())

	api.GET("/notes", rl.Handler(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notes": store.list()})
	})
	api.GET("/notes/:id", rl.Handler(), func(c *gin.Context) {
		text, err := store.get(c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "text": text})
	})

	// The admin namespace overrides the not-found shape for its own routes.
	admin := api.Namespace("admin", "/admin")
	admin.ErrorHandler(errNoteNotFound, func(err error) ginrest.Response {
		return ginrest.Response{
			Status: http.StatusNotFound,
			Body:   gin.H{"message": err.Error(), "code": "note_not_found", "scope": "admin"},
		}
	})
	admin.GET("/notes/:id", func(c *gin.Context) {
		text, err := store.get(c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "text": text})
	})
	admin.DELETE("/notes/:id", func(c *gin.Context) {
		apierr.Abort(http.StatusForbidden, "notes are read-only in the demo")
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// corsMiddleware allows everything when no origins are configured, or
// enforces the allowlist otherwise.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		})
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
