package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"faves_sorter/internal/domain"
)

const favoriteColumns = `id, remote_id, owner_id, text, created_at, processed, collection_id, cached_at`

type FavoriteStore struct {
	db *sqlx.DB
}

func NewFavoriteStore(db *sqlx.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

func (s *FavoriteStore) Save(ctx context.Context, ownerID string, items []domain.RemoteItem) ([]domain.Favorite, error) {
	if len(items) == 0 {
		return []domain.Favorite{}, nil
	}

	ex := GetExecutor(ctx, s.db)
	now := time.Now().UTC()

	rows := make([]domain.Favorite, len(items))
	remoteIDs := make([]string, len(items))
	for i, item := range items {
		rows[i] = domain.Favorite{
			ID:        domain.NewID(),
			RemoteID:  item.ID,
			OwnerID:   ownerID,
			Text:      item.Text,
			CreatedAt: item.CreatedAt.UTC(),
			CachedAt:  now,
		}
		remoteIDs[i] = item.ID
	}

	query := `
		INSERT INTO favorites (id, remote_id, owner_id, text, created_at, processed, cached_at)
		VALUES (:id, :remote_id, :owner_id, :text, :created_at, :processed, :cached_at)
		ON CONFLICT (owner_id, remote_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, ex, query, rows); err != nil {
		return nil, fmt.Errorf("insert favorites: %w", err)
	}

	var stored []domain.Favorite
	err := sqlx.SelectContext(ctx, ex, &stored,
		`SELECT `+favoriteColumns+` FROM favorites WHERE owner_id = $1 AND remote_id = ANY($2)`,
		ownerID, pq.Array(remoteIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("select saved favorites: %w", err)
	}

	byRemote := make(map[string]domain.Favorite, len(stored))
	for _, f := range stored {
		byRemote[f.RemoteID] = f
	}

	saved := make([]domain.Favorite, 0, len(items))
	for _, item := range items {
		if f, ok := byRemote[item.ID]; ok {
			saved = append(saved, f)
		}
	}
	return saved, nil
}

func (s *FavoriteStore) Query(ctx context.Context, filter domain.FavoriteFilter) ([]domain.Favorite, error) {
	conds := []string{"owner_id = $1"}
	args := []any{filter.OwnerID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Processed != nil {
		conds = append(conds, "processed = "+arg(*filter.Processed))
	}
	if filter.CollectionID != "" {
		conds = append(conds, "collection_id = "+arg(filter.CollectionID))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.Since))
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "created_at <= "+arg(filter.Until))
	}
	if !filter.Before.IsZero() {
		if filter.BeforeRemoteID == "" {
			conds = append(conds, "created_at < "+arg(filter.Before))
		} else {
			at, id := arg(filter.Before), arg(filter.BeforeRemoteID)
			conds = append(conds, fmt.Sprintf(
				"(created_at < %[1]s OR (created_at = %[1]s AND (length(remote_id) < length(%[2]s) OR (length(remote_id) = length(%[2]s) AND remote_id < %[2]s))))",
				at, id))
		}
	}

	query := `SELECT ` + favoriteColumns + ` FROM favorites WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, length(remote_id) DESC, remote_id DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	favs := []domain.Favorite{}
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &favs, query, args...); err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	return favs, nil
}

func (s *FavoriteStore) Get(ctx context.Context, ownerID, id string) (*domain.Favorite, error) {
	return s.getWhere(ctx, "id = $2", ownerID, id)
}

func (s *FavoriteStore) GetByRemoteID(ctx context.Context, ownerID, remoteID string) (*domain.Favorite, error) {
	return s.getWhere(ctx, "remote_id = $2", ownerID, remoteID)
}

func (s *FavoriteStore) getWhere(ctx context.Context, cond, ownerID, key string) (*domain.Favorite, error) {
	var f domain.Favorite
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &f,
		`SELECT `+favoriteColumns+` FROM favorites WHERE owner_id = $1 AND `+cond,
		ownerID, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("favorite %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FavoriteStore) Update(ctx context.Context, ownerID, id string, patch domain.FavoritePatch) (*domain.Favorite, error) {
	sets := []string{}
	args := []any{ownerID, id}
	if patch.Processed != nil {
		args = append(args, *patch.Processed)
		sets = append(sets, fmt.Sprintf("processed = $%d", len(args)))
	}
	if patch.CollectionID != nil {
		args = append(args, *patch.CollectionID)
		sets = append(sets, fmt.Sprintf("collection_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return s.Get(ctx, ownerID, id)
	}

	query := `UPDATE favorites SET ` + strings.Join(sets, ", ") +
		` WHERE owner_id = $1 AND id = $2 RETURNING ` + favoriteColumns

	var f domain.Favorite
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &f, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FavoriteStore) ClearCollection(ctx context.Context, ownerID, collectionID string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE favorites SET collection_id = NULL WHERE owner_id = $1 AND collection_id = $2`,
		ownerID, collectionID,
	)
	return err
}
