package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"faves_sorter/internal/domain"
)

const userColumns = `id, remote_user_id, screen_name, oauth_token, oauth_token_secret, created_at, updated_at`

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Upsert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, remote_user_id, screen_name, oauth_token, oauth_token_secret)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (remote_user_id) DO UPDATE SET
			screen_name = EXCLUDED.screen_name,
			oauth_token = EXCLUDED.oauth_token,
			oauth_token_secret = EXCLUDED.oauth_token_secret,
			updated_at = NOW()
		RETURNING ` + userColumns

	return sqlx.GetContext(ctx, GetExecutor(ctx, s.db), user, query,
		domain.NewID(),
		user.RemoteUserID,
		user.ScreenName,
		user.OAuthToken,
		user.OAuthTokenSecret,
	)
}

func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &users,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	return users, nil
}
