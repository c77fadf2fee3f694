package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/middleware/ratelimit"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/middleware/security"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/middleware/trace"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API exposes.
type Deps struct {
	Loans   *services.LoanService
	Wallets *services.WalletService
	Ledger  *services.LedgerService
	// Ready is checked by /readyz; nil means always ready.
	Ready Pinger

	Logger            *applog.Logger
	RequestsPerMinute int
}

type Server struct {
	http.Server
	loans   *services.LoanService
	wallets *services.WalletService
	ledger  *services.LedgerService
	ready   Pinger
	logger  *applog.Logger

	ipExtractor *security.ClientIPExtractor
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		loans:       deps.Loans,
		wallets:     deps.Wallets,
		ledger:      deps.Ledger,
		ready:       deps.Ready,
		logger:      logger,
		ipExtractor: security.NewClientIPExtractor(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RequestsPerMinute}),
		now:         time.Now,
	}
	s.tracer = trace.NewMiddleware(s.ipExtractor.ExtractClientIP, logger)
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Ruta no encontrada"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Método no permitido"})
	})

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.limitWrites)

	api.HandleFunc("/loans", s.handleCreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", s.handleListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", s.handleGetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", s.handleUpdateLoan).Methods(http.MethodPatch)
	api.HandleFunc("/loans/{id}", s.handleDeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id}/schedule", s.handleLoanSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/payments", s.handleListPayments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/payments", s.handleRecordPayment).Methods(http.MethodPost)

	api.HandleFunc("/wallets", s.handleCreateWallet).Methods(http.MethodPost)
	api.HandleFunc("/wallets", s.handleListWallets).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}", s.handleGetWallet).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/credit-card-schedule", s.handleCreditCardSchedule).Methods(http.MethodGet)

	api.HandleFunc("/amortization", s.handleAmortization).Methods(http.MethodGet)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.tracer.Middleware(headers.Middleware(r))
}

// limitWrites applies the per-client rate limit to mutating requests.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.ipExtractor.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.ipExtractor.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Demasiadas solicitudes, intenta más tarde"})
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		s.logger.Info("HTTP server stopped",
			applog.FieldOperation, applog.OpShutdown,
			"total_requests", s.tracer.TotalRequests())
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
