// Package server exposes the continuation service over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auramythos/archive"
	"auramythos/generator"
	"auramythos/store"
)

const defaultRequestTimeout = 60 * time.Second

// Options wires the server's collaborators. Service, Sessions and Archive are
// required.
type Options struct {
	Service  *generator.Service
	Sessions store.Store
	Archive  *archive.Store

	// Policy is used when a request does not name one.
	Policy         generator.ErrorPolicy
	RequestTimeout time.Duration
	CORSOrigins    []string

	// Limiter enables rate limiting of POST routes when non-nil.
	Limiter            RateLimiter
	RateLimitPerMinute int

	// ServeMetrics mounts /metrics on the API router.
	ServeMetrics bool
}

type Server struct {
	svc      *generator.Service
	sessions store.Store
	archive  *archive.Store
	policy   generator.ErrorPolicy
	timeout  time.Duration
	locks    *keyedMutex
	opts     Options
}

func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("continuation service required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store required")
	}
	if opts.Archive == nil {
		return nil, errors.New("story archive required")
	}
	policy := opts.Policy
	if policy == "" {
		policy = generator.PolicyRaise
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Server{
		svc:      opts.Service,
		sessions: opts.Sessions,
		archive:  opts.Archive,
		policy:   policy,
		timeout:  timeout,
		locks:    newKeyedMutex(),
		opts:     opts,
	}, nil
}

// Routes builds the gin engine with middleware and every API route.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(
		recovery(),
		requestID(),
		accessLog(),
		httpMetrics(),
		corsMiddleware(s.opts.CORSOrigins),
	)

	r.GET("/healthz", s.handleHealth)
	if s.opts.ServeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	limit := rateLimit(s.opts.Limiter, s.opts.RateLimitPerMinute)

	api := r.Group("/api")
	api.GET("/formats", s.handleFormats)
	api.POST("/continue", limit, s.handleContinue)

	sessions := api.Group("/sessions")
	sessions.POST("", limit, s.handleSessionCreate)
	sessions.GET("/:id", s.handleSessionGet)
	sessions.DELETE("/:id", s.handleSessionDelete)
	sessions.POST("/:id/continue", limit, s.handleSessionContinue)

	stories := api.Group("/stories")
	stories.POST("", limit, s.handleStorySave)
	stories.GET("/:id", s.handleStoryGet)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
	return r
}
