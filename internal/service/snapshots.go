package service

import (
	"context"
	"strings"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/projection"

	"go.uber.org/zap"
)

// ============================================================
// Snapshots: immutable copies of the dashboard inputs
// ============================================================

func (s *FinanceService) ListSnapshots(ctx context.Context, userID string) ([]domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListSnapshots")
	defer span.End()

	snaps, err := s.store.ListSnapshots(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list snapshots", err)
	}
	return snaps, nil
}

func (s *FinanceService) GetSnapshot(ctx context.Context, userID, snapshotID string) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.GetSnapshot")
	defer span.End()

	snap, err := s.store.GetSnapshot(ctx, userID, snapshotID)
	if err != nil {
		return nil, s.storeErr("get snapshot", err)
	}
	return snap, nil
}

// CreateSnapshot copies the current grouped accounts, burn rate and credit
// score. Later edits to live state never change it.
func (s *FinanceService) CreateSnapshot(ctx context.Context, userID, label string) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateSnapshot")
	defer span.End()

	in, err := s.loadInputs(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups := domain.GroupAccounts(in.accounts)

	snap, err := s.store.CreateSnapshot(ctx, &domain.Snapshot{
		UserID:          userID,
		Label:           strings.TrimSpace(label),
		Accounts:        groups,
		MonthlyExpenses: projection.BurnRate(*in.settings, in.expenses),
		CreditScore:     in.settings.CreditScore,
		NetWorth:        projection.NetWorth(groups),
	})
	if err != nil {
		return nil, s.storeErr("create snapshot", err)
	}

	s.logger.Info("snapshot created",
		zap.String("user_id", userID),
		zap.String("snapshot_id", snap.ID),
	)
	return snap, nil
}

func (s *FinanceService) DeleteSnapshot(ctx context.Context, userID, snapshotID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteSnapshot")
	defer span.End()

	if err := s.store.DeleteSnapshot(ctx, userID, snapshotID); err != nil {
		return s.storeErr("delete snapshot", err)
	}
	return nil
}

// RestoreSnapshot overwrites live accounts with the snapshot's and puts its
// burn rate and credit score back into settings. Expense mode switches to
// simple because a snapshot only keeps the scalar.
func (s *FinanceService) RestoreSnapshot(ctx context.Context, userID, snapshotID string) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.RestoreSnapshot")
	defer span.End()

	snap, err := s.store.GetSnapshot(ctx, userID, snapshotID)
	if err != nil {
		return nil, s.storeErr("get snapshot", err)
	}

	accounts := snap.Accounts.Flatten()
	for i := range accounts {
		accounts[i].ID = ""
		accounts[i].UserID = userID
	}
	if err := s.store.ReplaceAccounts(ctx, userID, accounts); err != nil {
		return nil, s.storeErr("replace accounts", err)
	}

	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings.MonthlyExpenses = snap.MonthlyExpenses
	settings.ExpenseMode = domain.ExpenseModeSimple
	settings.CreditScore = snap.CreditScore
	if _, err := s.UpdateSettings(ctx, userID, settings); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	s.logger.Info("snapshot restored",
		zap.String("user_id", userID),
		zap.String("snapshot_id", snapshotID),
		zap.Int("accounts", len(accounts)),
	)
	return snap, nil
}
