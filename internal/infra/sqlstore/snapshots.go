package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// snapshotRow stores the grouped accounts as JSON text.
type snapshotRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Label           string    `db:"label"`
	Accounts        string    `db:"accounts"`
	MonthlyExpenses float64   `db:"monthly_expenses"`
	CreditScore     *int      `db:"credit_score"`
	NetWorth        float64   `db:"net_worth"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r snapshotRow) toDomain() (domain.Snapshot, error) {
	snap := domain.Snapshot{
		ID:              r.ID,
		UserID:          r.UserID,
		Label:           r.Label,
		MonthlyExpenses: r.MonthlyExpenses,
		CreditScore:     r.CreditScore,
		NetWorth:        r.NetWorth,
		CreatedAt:       r.CreatedAt,
	}
	err := json.Unmarshal([]byte(r.Accounts), &snap.Accounts)
	return snap, err
}

const snapshotColumns = `id, user_id, label, accounts, monthly_expenses, credit_score, net_worth, created_at`

func (s *Store) ListSnapshots(ctx context.Context, userID string) ([]domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListSnapshots")
	defer span.End()

	var rows []snapshotRow
	err := s.exec(ctx, "snapshots", func(ctx context.Context) error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows,
			`SELECT `+snapshotColumns+` FROM snapshots WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	})
	if err != nil {
		return nil, err
	}

	snaps := make([]domain.Snapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.toDomain()
		if err != nil {
			return nil, &domain.ErrExternalService{Service: BackendName + "/snapshots", Err: err}
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (s *Store) GetSnapshot(ctx context.Context, userID, snapshotID string) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetSnapshot")
	defer span.End()

	var row snapshotRow
	err := s.exec(ctx, "snapshots", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &row, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ? AND user_id = ?`, snapshotID, userID)
		return notFoundIfNoRows(err, "snapshot", snapshotID)
	})
	if err != nil {
		return nil, err
	}

	snap, err := row.toDomain()
	if err != nil {
		return nil, &domain.ErrExternalService{Service: BackendName + "/snapshots", Err: err}
	}
	return &snap, nil
}

func (s *Store) CreateSnapshot(ctx context.Context, snap *domain.Snapshot) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateSnapshot")
	defer span.End()

	stamp(&snap.ID, &snap.CreatedAt)
	accounts, err := json.Marshal(snap.Accounts)
	if err != nil {
		return nil, err
	}
	row := snapshotRow{
		ID:              snap.ID,
		UserID:          snap.UserID,
		Label:           snap.Label,
		Accounts:        string(accounts),
		MonthlyExpenses: snap.MonthlyExpenses,
		CreditScore:     snap.CreditScore,
		NetWorth:        snap.NetWorth,
		CreatedAt:       snap.CreatedAt,
	}

	err = s.exec(ctx, "snapshots", func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, `INSERT INTO snapshots (`+snapshotColumns+`)
			VALUES (:id, :user_id, :label, :accounts, :monthly_expenses, :credit_score, :net_worth, :created_at)`, &row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, userID, snapshotID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteSnapshot")
	defer span.End()

	return s.deleteOne(ctx, "snapshots", "snapshot", userID, snapshotID)
}
