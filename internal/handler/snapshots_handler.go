package handler

import (
	"net/http"

	"github.com/boddenberg/runway-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type createSnapshotRequest struct {
	Label string `json:"label"`
}

func listSnapshotsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/snapshots")
		defer span.End()

		snaps, err := svc.ListSnapshots(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, snaps)
	}
}

func createSnapshotHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/me/snapshots")
		defer span.End()

		// The body is optional; an unlabeled snapshot is fine.
		var req createSnapshotRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}

		snap, err := svc.CreateSnapshot(ctx, UserIDFromContext(ctx), req.Label)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, snap)
	}
}

func getSnapshotHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/snapshots/{snapshotId}")
		defer span.End()

		snap, err := svc.GetSnapshot(ctx, UserIDFromContext(ctx), chi.URLParam(r, "snapshotId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}

func deleteSnapshotHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/me/snapshots/{snapshotId}")
		defer span.End()

		if err := svc.DeleteSnapshot(ctx, UserIDFromContext(ctx), chi.URLParam(r, "snapshotId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func restoreSnapshotHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/me/snapshots/{snapshotId}/restore")
		defer span.End()

		snapshotID := chi.URLParam(r, "snapshotId")
		span.SetAttributes(attribute.String("snapshot.id", snapshotID))

		snap, err := svc.RestoreSnapshot(ctx, UserIDFromContext(ctx), snapshotID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("snapshot restored",
			zap.String("user_id", snap.UserID),
			zap.String("snapshot_id", snap.ID),
		)
		writeJSON(w, http.StatusOK, snap)
	}
}
