// Package server is the transport boundary: it decodes requests, invokes
// the query engine, and renders results in the success-flag envelope the
// game frontend expects.
package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/catalog"
	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/engine"
)

// NewHTTPServer wires the catalog routes plus health and metrics endpoints.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, eng *engine.Engine, cache *catalog.CategoryCache, pool *pgxpool.Pool, rdb *redis.Client) *http.Server {
	handlers := NewHandlers(eng, cache, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", handlers.GetCategories)
	mux.HandleFunc("GET /categories/{id}/questions", handlers.GetCategoryQuestions)
	mux.HandleFunc("GET /questions", handlers.GetQuestions)
	mux.HandleFunc("POST /questions", handlers.PostQuestions)
	mux.HandleFunc("DELETE /questions/{id}", handlers.DeleteQuestion)
	mux.HandleFunc("POST /quizzes", handlers.PostQuizzes)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = instrumentRequests(handler)
	handler = corsHeaders(cfg.CORS)(handler)
	handler = requestLogging(logger)(handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
