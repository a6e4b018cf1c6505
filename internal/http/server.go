package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// TransactionAPI is the service surface the handlers call;
// *services.TransactionService implements it.
type TransactionAPI interface {
	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	UpdateCard(ctx context.Context, c core.Card) (core.Card, error)
	ListCards(ctx context.Context) ([]core.Card, error)
	CreateTransaction(ctx context.Context, in services.NewTransaction) (core.Transaction, error)
	CreateInstallmentPlan(ctx context.Context, in services.NewInstallmentPlan) ([]core.Transaction, error)
	CreateRecurring(ctx context.Context, in services.NewRecurring) ([]core.Transaction, error)
	SetPaid(ctx context.Context, id int64, paid bool) (core.Transaction, error)
	ListMonth(ctx context.Context, year, month int, today core.Date) ([]services.TransactionView, error)
	ListGroup(ctx context.Context, groupID string, today core.Date) ([]services.TransactionView, error)
	CardStatement(ctx context.Context, cardID int64, year, month int, today core.Date) (services.CardStatement, error)
}

// Options configures a Server. Zero values are usable.
type Options struct {
	// Location decides which calendar day "today" is (default UTC)
	Location *time.Location
	// Ready reports whether dependencies are reachable, used by /readyz
	Ready  func(ctx context.Context) error
	Logger *applog.Logger
	Now    func() time.Time
}

type Server struct {
	http.Server
	svc         TransactionAPI
	ready       func(ctx context.Context) error
	location    *time.Location
	now         func() time.Time
	logger      *applog.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc TransactionAPI, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:         svc,
		ready:       opts.Ready,
		location:    opts.Location,
		now:         opts.Now,
		logger:      logger,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		startedAt:   opts.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("GET /api/cards/{id}/statement", s.handleCardStatement)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions/{id}/paid", s.handleSetPaid)
	mux.HandleFunc("POST /api/installments", s.handleCreateInstallments)
	mux.HandleFunc("POST /api/recurrences", s.handleCreateRecurrence)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)

	mux.HandleFunc("POST /api/preview/recurrence", s.handlePreviewRecurrence)
	mux.HandleFunc("POST /api/preview/installments", s.handlePreviewInstallments)
	mux.HandleFunc("POST /api/preview/billing-cycle", s.handlePreviewBillingCycle)

	s.Handler = s.withMiddleware(mux)
	return s
}

// today is the calendar date of the server clock in the configured zone.
func (s *Server) today() core.Date {
	return core.Today(s.now(), s.location)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request logging, rate limiting and security headers.
// An X-Request-ID sent by a proxy is kept; otherwise one is generated.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	h := s.guard(next)
	h = applog.RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get("X-Request-ID") })(h)
	h = applog.Middleware(s.logger)(h)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)
		h.ServeHTTP(w, r)
	})
}

func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := applog.FromContext(ctx)
		httpLog := applog.NewStructuredLogger(logger)
		clientIP := extractClientIP(r)

		httpLog.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if limited(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP)
			ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(rw)
		} else {
			next.ServeHTTP(rw, r)
		}

		httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// limited reports whether requests with this method count against the
// per-client write budget.
func limited(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.startedAt).Round(time.Second).String(),
		"today":     s.today(),
		"security":  s.metrics.snapshot(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "database": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
