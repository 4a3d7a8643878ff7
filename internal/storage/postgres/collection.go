package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"faves_sorter/internal/domain"
)

type CollectionStore struct {
	db *sqlx.DB
}

func NewCollectionStore(db *sqlx.DB) *CollectionStore {
	return &CollectionStore{db: db}
}

func (s *CollectionStore) Create(ctx context.Context, c *domain.Collection) error {
	_, err := sqlx.NamedExecContext(ctx, GetExecutor(ctx, s.db),
		`INSERT INTO collections (id, owner_id, name, created_at) VALUES (:id, :owner_id, :name, :created_at)`,
		c,
	)
	return err
}

func (s *CollectionStore) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	cs := []domain.Collection{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &cs,
		`SELECT id, owner_id, name, created_at FROM collections WHERE owner_id = $1 ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *CollectionStore) Get(ctx context.Context, ownerID, id string) (*domain.Collection, error) {
	var c domain.Collection
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &c,
		`SELECT id, owner_id, name, created_at FROM collections WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CollectionStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM collections WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
