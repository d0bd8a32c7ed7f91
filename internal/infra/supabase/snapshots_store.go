package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// Snapshots keep the grouped accounts in a jsonb column.

func (c *Client) ListSnapshots(ctx context.Context, userID string) ([]domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSnapshots")
	defer span.End()

	var snaps []domain.Snapshot
	err := c.exec(ctx, "snapshots", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("snapshots?%s&order=created_at.desc", eq("user_id", userID)))
		if err != nil {
			return err
		}
		snaps, err = decodeRows[domain.Snapshot](body)
		return err
	})
	return snaps, err
}

func (c *Client) GetSnapshot(ctx context.Context, userID, snapshotID string) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSnapshot")
	defer span.End()

	var snap *domain.Snapshot
	err := c.exec(ctx, "snapshots", func(ctx context.Context) error {
		path := fmt.Sprintf("snapshots?%s&%s&limit=1", eq("user_id", userID), eq("id", snapshotID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		snap, err = decodeOne[domain.Snapshot](body, "snapshot", snapshotID)
		return err
	})
	return snap, err
}

func (c *Client) CreateSnapshot(ctx context.Context, s *domain.Snapshot) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSnapshot")
	defer span.End()

	stamp(&s.ID, &s.CreatedAt)
	row, err := toRow(s)
	if err != nil {
		return nil, err
	}

	var created *domain.Snapshot
	err = c.exec(ctx, "snapshots", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "snapshots", row)
		if err != nil {
			return err
		}
		created, err = decodeOne[domain.Snapshot](body, "snapshot", s.ID)
		return err
	})
	return created, err
}

func (c *Client) DeleteSnapshot(ctx context.Context, userID, snapshotID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSnapshot")
	defer span.End()

	return c.deleteOne(ctx, "snapshots", "snapshot", userID, snapshotID)
}
