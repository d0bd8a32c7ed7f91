package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/runway-bfa/internal/service"

	"go.uber.org/zap"
)

// maxImportBytes bounds an uploaded export file.
const maxImportBytes = 10 << 20

func transferFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return service.FormatJSON
}

func exportHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/export")
		defer span.End()

		format := transferFormat(r)
		var contentType string
		switch format {
		case service.FormatJSON:
			contentType = "application/json"
		case service.FormatCSV:
			contentType = "text/csv"
		default:
			writeError(w, http.StatusBadRequest, "format must be json or csv")
			return
		}

		filename := fmt.Sprintf("runway-export-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		// Headers are committed on the first write; a failure after that can
		// only be logged.
		if err := svc.Export(ctx, UserIDFromContext(ctx), format, w); err != nil {
			logger.Error("export failed", zap.String("format", format), zap.Error(err))
			handleServiceError(w, err, logger)
		}
	}
}

func importHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/me/import")
		defer span.End()

		body := http.MaxBytesReader(w, r.Body, maxImportBytes)
		res, err := svc.Import(ctx, UserIDFromContext(ctx), transferFormat(r), body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
