package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finstress/internal/core"
	applog "finstress/internal/log"
	"finstress/internal/middleware/ratelimit"
	"finstress/internal/middleware/security"
	"finstress/internal/middleware/trace"
	"finstress/internal/services"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20
)

// Service ports consumed by the handlers.
type (
	BudgetService interface {
		FromDescription(ctx context.Context, description string) (core.BudgetRecord, error)
		FromPayload(ctx context.Context, p core.BudgetPayload) (core.BudgetRecord, error)
		Get(ctx context.Context, id string) (core.BudgetRecord, error)
	}

	AnalysisService interface {
		Analyze(ctx context.Context, in services.AnalysisInput) (services.AnalysisResult, error)
		ScoreSnapshot(ctx context.Context, snap core.FinancialSnapshot) (core.FinancialSnapshot, error)
		ScoreBatch(ctx context.Context, snaps []core.FinancialSnapshot) ([]services.BatchItem, error)
		Summarize(ctx context.Context, txs []core.Transaction) (core.SpendSummary, error)
	}

	Recommender interface {
		Recommend(ctx context.Context, s core.FinancialSnapshot, kind core.RecommendationKind) ([]string, error)
		RecommendForSnapshot(ctx context.Context, snapshotID string) (core.Recommendations, error)
		RecommendStored(ctx context.Context, snapshotID string, kind core.RecommendationKind) ([]string, error)
		Get(ctx context.Context, snapshotID string) (core.Recommendations, error)
	}

	ReceiptParser interface {
		Parse(ctx context.Context, data []byte) (core.ReceiptItem, error)
	}
)

// Deps are the collaborators a Server routes to. Ready may be nil.
type Deps struct {
	Budgets     BudgetService
	Analysis    AnalysisService
	Recommender Recommender
	Receipts    ReceiptParser
	Ready       func(context.Context) error
	Logger      *applog.Logger

	// RateLimit bounds POST requests per client; zero values use the defaults.
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	deps     Deps
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/budget", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budget/{id}", s.handleGetBudget)
	mux.HandleFunc("POST /api/analysis", s.handleAnalysis)
	mux.HandleFunc("POST /api/stress-score", s.handleStressScore)
	mux.HandleFunc("POST /api/stress-score/batch", s.handleStressScoreBatch)
	mux.HandleFunc("POST /api/summary/chart", s.handleSummaryChart)
	mux.HandleFunc("POST /api/recommendations", s.handleRecommendations)
	mux.HandleFunc("GET /api/snapshots/{id}/recommendations", s.handleGetRecommendations)
	mux.HandleFunc("POST /api/receipt", s.handleReceipt)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// wrap applies, outermost first: tracing, request logger, probe detection,
// security headers and the POST rate limit.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit, http.MethodPost)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = applog.Middleware(s.logger, trace.RequestID)(h)
	return s.tracer.Middleware(h)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
