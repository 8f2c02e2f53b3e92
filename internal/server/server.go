// Package server provides HTTP server initialization and lifecycle
// management for the BellyBuzz API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/bellybuzz/bellybuzz/internal/config"
	"github.com/bellybuzz/bellybuzz/internal/query"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/web/handlers"
)

// Start builds the route table and serves until ctx is cancelled. It
// returns the actual listen address, useful for tests binding port 0.
func Start(ctx context.Context, cfg *config.Config, store storage.Store, ranker *query.Ranker) (string, error) {
	mux := http.NewServeMux()

	api := handlers.NewAPI(store, ranker)
	mux.HandleFunc("GET /api/search", api.Search)
	mux.HandleFunc("GET /api/trending", api.Trending)
	mux.HandleFunc("GET /api/cuisines", api.Cuisines)
	mux.HandleFunc("GET /api/restaurants/{key}", api.GetRestaurant)
	mux.HandleFunc("GET /api/health", api.Health)

	var handler http.Handler = mux
	if cfg.Server.RateLimitPerSecond > 0 {
		rl := handlers.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)
		handler = rl.Middleware(handler)
	}
	handler = handlers.SecurityHeaders(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve: %v", err)
		}
	}()

	log.Printf("server: listening on %s", listener.Addr())
	return listener.Addr().String(), nil
}
