package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pose-coach/internal/config"
	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/eventid"
	"github.com/jonathan/pose-coach/internal/logger"
	"github.com/jonathan/pose-coach/internal/posecache"
	"github.com/jonathan/pose-coach/internal/schemas"
	"github.com/jonathan/pose-coach/internal/scoring"
	"github.com/jonathan/pose-coach/internal/server/middleware"
	"github.com/jonathan/pose-coach/internal/server/ratelimit"
	"github.com/jonathan/pose-coach/internal/types"
)

// PoseStore is the pose library served by the API.
type PoseStore interface {
	CreatePose(ctx context.Context, pose *types.Pose) (*types.Pose, error)
	GetPose(ctx context.Context, ref string) (*types.Pose, error)
	ListPoses(ctx context.Context, opts db.ListOptions) ([]types.Pose, error)
	UpdatePose(ctx context.Context, id uuid.UUID, pose *types.Pose) (*types.Pose, error)
	DeletePose(ctx context.Context, id uuid.UUID) error
}

// HealthCheck reports whether a backend is reachable.
type HealthCheck func(ctx context.Context) error

// RenderDefaults are applied to render requests that leave a field unset.
type RenderDefaults struct {
	Width         int
	Height        int
	MinConfidence float64
	Scale         float64
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       PoseStore
	analyzer    scoring.Analyzer
	render      RenderDefaults
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
	health      map[string]HealthCheck
	closers     []func()
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration
	NodeID      int64
	Render      RenderDefaults
}

// Deps are the collaborators of a Server. Store is required; a nil JWT
// leaves the pose-authoring routes answering 401.
type Deps struct {
	Store        PoseStore
	JWT          *JWTService
	Credentials  *config.AuthorCredentials
	Passwords    *config.PasswordConfig
	RateLimit    *ratelimit.Config
	Analyzer     scoring.Analyzer
	Render       RenderDefaults
	HealthChecks map[string]HealthCheck
}

// New connects to PostgreSQL (and Redis when configured), reads auth
// settings from the environment and builds the server.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	if err := eventid.Init(cfg.NodeID); err != nil {
		return nil, fmt.Errorf("failed to initialize event IDs: %w", err)
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	credentials := config.NewAuthorCredentials()
	if !credentials.Enabled() {
		slog.WarnContext(ctx, "AUTHOR_PASSWORD_HASH not set, author login disabled")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "database connected")

	closers := []func(){database.Close}
	health := map[string]HealthCheck{"database": database.Ping}

	var store PoseStore = database
	if cfg.RedisURL != "" {
		client, err := posecache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			database.Close()
			return nil, err
		}
		store = posecache.New(database, client, cfg.CacheTTL)
		closers = append(closers, func() { _ = client.Close() })
		health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		slog.InfoContext(ctx, "redis connected", "cache_ttl", cfg.CacheTTL)
	}

	s, err := NewWithDeps(fmt.Sprintf(":%d", cfg.Port), Deps{
		Store:        store,
		JWT:          NewJWTService(jwtConfig),
		Credentials:  credentials,
		Passwords:    passwordConfig,
		RateLimit:    ratelimit.LoadConfig(),
		Analyzer:     scoring.DefaultAnalyzer(),
		Render:       cfg.Render,
		HealthChecks: health,
	})
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	s.closers = append(s.closers, closers...)
	return s, nil
}

// NewWithDeps builds a server listening on addr from explicit collaborators.
func NewWithDeps(addr string, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("pose store is required")
	}

	s := &Server{
		store:       deps.Store,
		analyzer:    deps.Analyzer,
		render:      deps.Render,
		rateLimiter: ratelimit.NewLimiter(deps.RateLimit),
		jwtService:  deps.JWT,
		authHandler: NewAuthHandler(deps.Credentials, deps.Passwords, deps.JWT),
		health:      deps.HealthChecks,
	}
	s.closers = append(s.closers, s.rateLimiter.Stop)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute, // streams stay open for the whole session
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	requireAuthor := s.requireAuthor()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/token", s.authHandler.Login)

	// Pose library
	mux.HandleFunc("GET /poses", s.handleListPoses)
	mux.HandleFunc("GET /poses/{id}", s.handleGetPose)
	mux.Handle("POST /poses", requireAuthor(http.HandlerFunc(s.handleCreatePose)))
	mux.Handle("PUT /poses/{id}", requireAuthor(http.HandlerFunc(s.handleUpdatePose)))
	mux.Handle("DELETE /poses/{id}", requireAuthor(http.HandlerFunc(s.handleDeletePose)))

	// Scoring and rendering
	mux.HandleFunc("POST /poses/{id}/analyze", s.handleAnalyzePose)
	mux.HandleFunc("POST /poses/{id}/stream", s.handleStreamPose)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /render", s.handleRender)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// requireAuthor guards pose-authoring routes with a Bearer token.
func (s *Server) requireAuthor() func(http.Handler) http.Handler {
	if s.jwtService == nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			})
		}
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	slog.Info("server stopped")
	return nil
}

// Close releases the rate limiter and backend connections.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Last-Event-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(r.Context(), w, clientID, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging. It keeps
// Flush and Unwrap reachable so SSE and http.ResponseController still work.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging and a request ID to the context.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		ctx := logger.WithLogFields(r.Context(), logger.LogFields{
			RequestID: logger.Ptr(requestID),
			Component: "http",
		})

		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.health))
	status := http.StatusOK
	for name, check := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			slog.WarnContext(r.Context(), "health check failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	writeJSON(w, status, body)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes an error JSON response with the status HTTPStatus picks.
// Internal errors are logged and replaced with a generic message.
func writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		message = "internal server error"
	}
	body := map[string]any{"error": message}

	var schemaErr *schemas.ValidationError
	if errors.As(err, &schemaErr) {
		details := make([]map[string]string, 0, len(schemaErr.Errors))
		for _, fe := range schemaErr.Errors {
			details = append(details, map[string]string{"field": fe.Field, "message": fe.Message})
		}
		body["details"] = details
	}

	writeJSON(w, status, body)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(ctx context.Context, w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	slog.WarnContext(ctx, "rate limit exceeded", "client", clientID, "limit", info.Limit)
	writeJSON(w, http.StatusTooManyRequests, response)
}
