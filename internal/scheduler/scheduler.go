package scheduler

import (
	"context"
	"log/slog"
	"time"

	"faves_sorter/internal/domain"
	"faves_sorter/internal/service"
)

// Refresher serves the latest page for a session, caching what it fetches.
type Refresher interface {
	Latest(ctx context.Context, sess *service.Session) ([]domain.Favorite, error)
}

type UserLister interface {
	List(ctx context.Context) ([]domain.User, error)
}

// SourceFactory builds the remote source acting on behalf of a user.
type SourceFactory func(user *domain.User) service.RemoteSource

// Scheduler periodically refreshes the cache of every signed-in user.
type Scheduler struct {
	refresher Refresher
	users     UserLister
	sources   SourceFactory
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

func NewScheduler(
	refresher Refresher,
	users UserLister,
	sources SourceFactory,
	interval, timeout time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		users:     users,
		sources:   sources,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runRefresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.RefreshAll(runCtx); err != nil {
		s.logger.Error("refresh failed", "error", err)
	}
}

// RefreshAll runs one latest-page sync per user holding an access token and
// returns how many succeeded. Per-user failures are logged and skipped.
func (s *Scheduler) RefreshAll(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for i := range users {
		user := &users[i]
		if user.OAuthToken == "" {
			continue
		}
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		sess := &service.Session{User: user, Remote: s.sources(user)}
		page, err := s.refresher.Latest(ctx, sess)
		if err != nil {
			s.logger.Warn("refresh user failed",
				"user_id", user.ID,
				"screen_name", user.ScreenName,
				"error", err,
			)
			continue
		}

		refreshed++
		s.logger.Debug("refreshed user", "user_id", user.ID, "unprocessed", len(page))
	}

	s.logger.Info("refresh finished", "users", len(users), "refreshed", refreshed)
	return refreshed, nil
}
