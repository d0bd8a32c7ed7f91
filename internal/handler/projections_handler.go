package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/runway-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// projectionHandler decodes a what-if request of type Req and writes the
// result of run. Every projection endpoint shares this shape.
func projectionHandler[Req any, Resp any](
	name string,
	run func(context.Context, *Req) (Resp, error),
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/me/projections/"+name)
		defer span.End()

		var req Req
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := run(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func projectionRoutes(svc *service.FinanceService, logger *zap.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/runway", projectionHandler("runway", svc.ProjectRunway, logger))
		r.Post("/payoff", projectionHandler("payoff", svc.ProjectPayoff, logger))
		r.Post("/strategy", projectionHandler("strategy", svc.ProjectStrategy, logger))
		r.Post("/score", projectionHandler("score", svc.ProjectScore, logger))
		r.Post("/required-payment", projectionHandler("required-payment", svc.ProjectRequiredPayment, logger))
	}
}
