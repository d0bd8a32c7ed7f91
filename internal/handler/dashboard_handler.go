package handler

import (
	"net/http"

	"github.com/boddenberg/runway-bfa/internal/service"

	"go.uber.org/zap"
)

func dashboardHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/dashboard")
		defer span.End()

		d, err := svc.Dashboard(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func achievementsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/achievements")
		defer span.End()

		progress, err := svc.Achievements(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, progress)
	}
}

// debtStrategyHandler compares avalanche and snowball over the user's debts.
// Without ?extra= the stored extra payment is used.
func debtStrategyHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/debts/strategy")
		defer span.End()

		extra, err := queryFloat(r, "extra")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		cmp, err := svc.DebtStrategy(ctx, UserIDFromContext(ctx), extra)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, cmp)
	}
}
