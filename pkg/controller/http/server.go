package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

const DefaultRequestTimeout = 30 * time.Second

// WebhookUseCase handles a validated webhook payload
type WebhookUseCase interface {
	HandleWebhook(ctx context.Context, payload *model.WebhookPayload) (*model.WebhookOutcome, error)
}

type Server struct {
	router         *chi.Mux
	verifier       *SignatureVerifier
	requestTimeout time.Duration
	health         *HealthReporter
	reportURL      string
}

type Options func(*Server)

func WithSignatureVerifier(v *SignatureVerifier) Options {
	return func(s *Server) {
		s.verifier = v
	}
}

func WithRequestTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

func WithHealth(h *HealthReporter) Options {
	return func(s *Server) {
		s.health = h
	}
}

// WithReportURL sets where GET /report redirects to
func WithReportURL(url string) Options {
	return func(s *Server) {
		s.reportURL = url
	}
}

// New builds the router. Without a verifier every webhook is rejected.
func New(uc WebhookUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		verifier:       NewSignatureVerifier("", false),
		requestTimeout: DefaultRequestTimeout,
		health:         &HealthReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(s.health))
	r.Get("/report", reportHandler(s.reportURL))

	r.Group(func(r chi.Router) {
		r.Use(HelpScoutSignatureMiddleware(s.verifier))
		r.Use(timeoutMiddleware(s.requestTimeout))
		r.Post("/", webhookHandler(uc))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger attaches a logger carrying the request id to the context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.From(ctx)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			logger = logger.With("request_id", reqID)
		}
		next.ServeHTTP(w, r.WithContext(logging.With(ctx, logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
