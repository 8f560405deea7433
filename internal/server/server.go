// Package server wires the HTTP API: routing, middleware and the JSON
// response contract. Every error body is {error, message}; stacks never
// reach the caller.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/castscope/castscope/internal/config"
	"github.com/castscope/castscope/internal/feed"
	"github.com/castscope/castscope/internal/models"
)

// SocialAPI is the slice of the social-graph client the passthrough
// endpoints use directly
type SocialAPI interface {
	Channel(ctx context.Context, channelID string) (*models.Channel, error)
	TrendingCasts(ctx context.Context, timeframe, filter string, limit int) ([]models.RawCast, error)
	CastReplies(ctx context.Context, parentFID int64, parentHash string, limit int, cursor string) ([]models.RawCast, string, error)
	CastMentions(ctx context.Context, fid int64, limit int, cursor string) ([]models.RawCast, string, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	PrimaryAddress(ctx context.Context, fid int64) (string, error)
}

// Explorer is the blockchain-explorer surface used for balance lookups
type Explorer interface {
	TokenBalance(ctx context.Context, contractAddress, address string) (string, error)
}

// Server is the HTTP server for the aggregation API
type Server struct {
	cfg        *config.Config
	feed       *feed.Service
	social     SocialAPI
	explorer   Explorer
	httpServer *http.Server
}

// NewServer creates the HTTP server and its routes
func NewServer(cfg *config.Config, feedService *feed.Service, social SocialAPI, explorer Explorer) *Server {
	s := &Server{
		cfg:      cfg,
		feed:     feedService,
		social:   social,
		explorer: explorer,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/comprehensive-feed", s.comprehensiveFeedHandler).Methods("GET")
	api.HandleFunc("/follower-feed", s.followerFeedHandler).Methods("GET")
	api.HandleFunc("/top-channels", s.topChannelsHandler).Methods("GET")
	api.HandleFunc("/trending-casts", s.trendingCastsHandler).Methods("GET")
	api.HandleFunc("/cast-replies", s.castRepliesHandler).Methods("GET")
	api.HandleFunc("/cast-mentions", s.castMentionsHandler).Methods("GET")
	api.HandleFunc("/channel", s.channelHandler).Methods("GET")
	api.HandleFunc("/user", s.userHandler).Methods("GET")
	api.HandleFunc("/token-balance", s.tokenBalanceHandler).Methods("GET")

	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	logrus.Infof("HTTP server starting on port %s", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusOK {
		// Successful aggregations are safe to cache briefly
		w.Header().Set("Cache-Control", "public, max-age=300")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   errMsg,
		"message": message,
	}); err != nil {
		logrus.Errorf("Failed to encode error response: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.status,
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
