// Package httpapi exposes the serving pipeline over HTTP using go-chi,
// mirroring the router/middleware stack of the teacher's chi-based API
// package (recovery, request id, logging, metrics, in that order).
package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/metrics"
	"github.com/configsrv/hoganserver/internal/servepipeline"
)

// NewRouter builds the full HTTP surface described in the external
// interfaces table: transform/configs/envs/heads, plus /ok which is
// intentionally excluded from the logging and metrics middleware.
func NewRouter(pipeline *servepipeline.Pipeline, sink metrics.Sink, logger *zap.Logger) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{pipeline: pipeline, logger: logger}

	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/ok", h.handleOK)

	r.Group(func(r chi.Router) {
		r.Use(Logger(logger))
		if sink != nil {
			r.Use(Metrics(sink))
		}

		r.Post("/transform/{sha}/{env}", h.handleTransformBySha)
		r.Post("/branch/{branch:.*}/transform/{env}", h.handleTransformByBranch)
		r.Get("/envs/{sha}", h.handleListing)
		r.Get("/configs/{sha}/{env}", h.handleConfigsBySha)
		r.Get("/branch/{branch:.*}/configs/{env}", h.handleConfigsByBranch)
		r.Get("/heads/{branch:.*}", h.handleHeads)
	})

	return r
}
