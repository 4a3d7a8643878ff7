package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"faves_sorter/internal/domain"
)

const rangeColumns = `id, owner_id, start_id, start_time, end_id, end_time, is_last, created_at`

type RangeStore struct {
	db *sqlx.DB
}

func NewRangeStore(db *sqlx.DB) *RangeStore {
	return &RangeStore{db: db}
}

// newest returns the owner's range with the latest start_time matching cond.
func (s *RangeStore) newest(ctx context.Context, cond string, args ...any) (*domain.Range, error) {
	query := `SELECT ` + rangeColumns + ` FROM ranges WHERE owner_id = $1`
	if cond != "" {
		query += " AND " + cond
	}
	query += ` ORDER BY start_time DESC LIMIT 1`

	var r domain.Range
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &r, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RangeStore) Newest(ctx context.Context, ownerID string) (*domain.Range, error) {
	return s.newest(ctx, "", ownerID)
}

func (s *RangeStore) NewestBefore(ctx context.Context, ownerID string, t time.Time) (*domain.Range, error) {
	return s.newest(ctx, "start_time < $2", ownerID, t)
}

func (s *RangeStore) Containing(ctx context.Context, ownerID string, t time.Time) (*domain.Range, error) {
	return s.newest(ctx, "end_time <= $2 AND start_time >= $2", ownerID, t)
}

func (s *RangeStore) Create(ctx context.Context, r *domain.Range) error {
	query := `
		INSERT INTO ranges (` + rangeColumns + `)
		VALUES (:id, :owner_id, :start_id, :start_time, :end_id, :end_time, :is_last, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, GetExecutor(ctx, s.db), query, r); err != nil {
		return fmt.Errorf("insert range: %w", err)
	}
	return nil
}

func (s *RangeStore) MarkLast(ctx context.Context, ownerID, id string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE ranges SET is_last = TRUE WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("range %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *RangeStore) Delete(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM ranges WHERE owner_id = $1 AND id = ANY($2)`,
		ownerID, pq.Array(ids),
	)
	return err
}

func (s *RangeStore) List(ctx context.Context, ownerID string) ([]domain.Range, error) {
	ranges := []domain.Range{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &ranges,
		`SELECT `+rangeColumns+` FROM ranges WHERE owner_id = $1 ORDER BY start_time DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return ranges, nil
}
