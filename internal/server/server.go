// Package server provides HTTP server initialization and lifecycle management
// for the Dossier API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/dossier-io/dossier/internal/config"
	"github.com/dossier-io/dossier/internal/graph"
	"github.com/dossier-io/dossier/internal/resolver"
	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// methodHandler dispatches by HTTP method, rejecting everything else.
func methodHandler(routes map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.Method]; ok {
			handler(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with
// port 0) and the ActivityHub broadcasting resolution events. The
// server shuts down when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, store storage.EntityStore) (string, *handlers.ActivityHub) {
	mux := http.NewServeMux()

	// Activity hub for resolution event broadcasts
	hub := handlers.NewActivityHub(
		fmt.Sprintf("localhost:%d", cfg.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
	)
	go hub.Run()

	engine := resolver.NewEngine(store)
	engine.SetNotifier(hub)

	analyzer := graph.NewAnalyzer(store)
	analyzer.SetCommunitySeed(int64(cfg.Graph.CommunitySeed))

	resolverHandlers := handlers.NewResolverHandlers(engine)
	graphHandlers := handlers.NewGraphHandlers(analyzer)
	entityHandlers := handlers.NewEntityHandlers(store)

	apiMux := http.NewServeMux()

	// Entity lookups
	apiMux.HandleFunc("/api/entities", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: entityHandlers.ListEntities,
	}))
	apiMux.HandleFunc("/api/entities/{id}", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: entityHandlers.GetEntity,
	}))

	// Resolution routes
	apiMux.HandleFunc("/api/resolver/resolve", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: resolverHandlers.ResolveAll,
	}))
	apiMux.HandleFunc("/api/resolver/resolve/{id}", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: resolverHandlers.ResolveEntity,
	}))
	apiMux.HandleFunc("/api/resolver/merge", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: resolverHandlers.Merge,
	}))
	apiMux.HandleFunc("/api/resolver/split", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: resolverHandlers.Split,
	}))
	apiMux.HandleFunc("/api/resolver/duplicates", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: resolverHandlers.Duplicates,
	}))
	apiMux.HandleFunc("/api/resolver/aliases/{id}", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: resolverHandlers.Aliases,
	}))
	apiMux.HandleFunc("/api/resolver/canonical/{id}", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: resolverHandlers.Canonical,
	}))
	apiMux.HandleFunc("/api/resolver/queue", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: resolverHandlers.Queue,
	}))
	apiMux.HandleFunc("/api/resolver/queue/{id}/review", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: resolverHandlers.ReviewQueueItem,
	}))
	apiMux.HandleFunc("/api/resolver/log", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: resolverHandlers.Log,
	}))

	// Graph routes
	apiMux.HandleFunc("/api/graph/stats", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: graphHandlers.Stats,
	}))
	apiMux.HandleFunc("/api/graph/centrality", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: graphHandlers.Centrality,
	}))
	apiMux.HandleFunc("/api/graph/communities", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: graphHandlers.Communities,
	}))
	apiMux.HandleFunc("/api/graph/path", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: graphHandlers.ShortestPath,
	}))
	apiMux.HandleFunc("/api/graph/neighbors", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: graphHandlers.Neighbors,
	}))
	apiMux.HandleFunc("/api/graph/subgraph", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: graphHandlers.Subgraph,
	}))

	// Health endpoint — no auth required, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	mux.Handle("/ws", hub)

	// Wrap the whole server with request ids, rate limiting, then
	// security headers.
	handler := handlers.RequestIDMiddleware(mux)
	if cfg.RateLimit.Enabled {
		rateLimiter := handlers.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		handler = handlers.RateLimitMiddleware(handler, rateLimiter)
	}
	handler = securityHeadersMiddleware(handler)

	// Create server with security timeouts
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		hub.Stop()
	}()

	return actualAddr, hub
}
