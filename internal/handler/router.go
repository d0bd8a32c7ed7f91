package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/observability"
	"github.com/boddenberg/runway-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// A nil finance or auth service leaves the corresponding routes answering 503,
// which keeps the operational endpoints usable on their own.
func NewRouter(
	financeSvc *service.FinanceService,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	corsOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(financeSvc))
	r.Get("/readyz", readyzHandler(financeSvc, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/engine", engineMetricsHandler(financeSvc, metrics))

		if authSvc == nil || financeSvc == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "service unavailable: storage not configured")
			}))
			return
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(authSvc, logger))
			r.Post("/login", authLoginHandler(authSvc, logger))
		})

		// Everything under /me belongs to the token's subject.
		r.Route("/me", func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Get("/dashboard", dashboardHandler(financeSvc, logger))
			r.Get("/achievements", achievementsHandler(financeSvc, logger))

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", listAccountsHandler(financeSvc, logger))
				r.Post("/", createAccountHandler(financeSvc, logger))
				r.Get("/{accountId}", getAccountHandler(financeSvc, logger))
				r.Patch("/{accountId}", updateAccountHandler(financeSvc, logger))
				r.Delete("/{accountId}", deleteAccountHandler(financeSvc, logger))
				r.Get("/{accountId}/payoff", payoffPlanHandler(financeSvc, logger))
				r.Get("/{accountId}/calculator", cardCalculatorHandler(financeSvc, logger))
			})

			r.Route("/income", func(r chi.Router) {
				r.Get("/", listIncomeHandler(financeSvc, logger))
				r.Post("/", createIncomeHandler(financeSvc, logger))
				r.Patch("/{incomeId}", updateIncomeHandler(financeSvc, logger))
				r.Delete("/{incomeId}", deleteIncomeHandler(financeSvc, logger))
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", listExpensesHandler(financeSvc, logger))
				r.Post("/", createExpenseHandler(financeSvc, logger))
				r.Patch("/{expenseId}", updateExpenseHandler(financeSvc, logger))
				r.Delete("/{expenseId}", deleteExpenseHandler(financeSvc, logger))
			})

			r.Get("/settings", getSettingsHandler(financeSvc, logger))
			r.Put("/settings", updateSettingsHandler(financeSvc, logger))

			r.Get("/debts/strategy", debtStrategyHandler(financeSvc, logger))
			r.Route("/projections", projectionRoutes(financeSvc, logger))

			r.Route("/snapshots", func(r chi.Router) {
				r.Get("/", listSnapshotsHandler(financeSvc, logger))
				r.Post("/", createSnapshotHandler(financeSvc, logger))
				r.Get("/{snapshotId}", getSnapshotHandler(financeSvc, logger))
				r.Delete("/{snapshotId}", deleteSnapshotHandler(financeSvc, logger))
				r.Post("/{snapshotId}/restore", restoreSnapshotHandler(financeSvc, logger))
			})

			r.Get("/export", exportHandler(financeSvc, logger))
			r.Post("/import", importHandler(financeSvc, logger))
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(financeSvc *service.FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "runway-bfa", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if financeSvc != nil {
			start := time.Now()
			err := financeSvc.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name:        financeSvc.BackendName(),
				Status:      status,
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

// readyzHandler reports ready once the store answers. Without a store the
// process only serves operational endpoints and is never ready.
func readyzHandler(financeSvc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if financeSvc == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		if err := financeSvc.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(financeSvc *service.FinanceService, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var backends []string
		if financeSvc != nil {
			backends = []string{financeSvc.BackendName()}
		}
		writeJSON(w, http.StatusOK, metrics.Snapshot(service.ProjectionKinds, backends))
	}
}
