package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"subtrack/internal/auth"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/services"
)

const defaultMaxUploadBytes = 1 << 20

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API needs.
type Deps struct {
	Subscriptions *services.SubscriptionService
	Users         *services.UserService
	Tokens        auth.Verifier
	Metrics       *metrics.Metrics
	// Store is pinged by /readyz when it implements Pinger.
	Store              any
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	subs      *services.SubscriptionService
	users     *services.UserService
	store     any
	maxUpload int64

	limiter  *ratelimit.Limiter
	detector *security.Detector
	started  time.Time
	logger   *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		subs:      deps.Subscriptions,
		users:     deps.Users,
		store:     deps.Store,
		maxUpload: deps.MaxUploadBytes,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		started:   time.Now(),
		logger:    log.WithComponent(log.ComponentHTTP),
	}

	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP).Middleware)
	r.Use(log.Middleware(s.logger, trace.GetRequestID))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingOnly, s.handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithMessage(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithMessage(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	requireAuth := auth.Middleware(deps.Tokens, func(w http.ResponseWriter, r *http.Request, msg string) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondWithMessage(w, r, http.StatusUnauthorized, msg)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(requireAuth).Get("/me", s.handleMe)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", s.handleListSubscriptions)
			r.Post("/", s.handleCreateSubscription)
			r.Get("/stats", s.handleStatistics)
			r.Post("/bulk_upload", s.handleBulkUpload)
			r.Put("/{id}", s.handleReplaceSubscription)
			r.Delete("/{id}", s.handleDeleteSubscription)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and releases background resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	respondWithMessage(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}
