package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
)

const (
	otelScope          = "faves_sorter/sync"
	metricFetches      = "faves_sorter.sync.remote_fetches"
	metricCached       = "faves_sorter.sync.favorites.cached"
	metricRanges       = "faves_sorter.sync.ranges.created"
	metricGuardReached = "faves_sorter.sync.backfill_guard"
)

// SyncService serves pages of a user's favorites, merging the local cache
// with remote fetches so consecutive pages never skip or repeat an item.
type SyncService struct {
	favorites FavoriteStore
	ranges    *RangeTracker
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig
	locks     *ownerLocks

	tracer     trace.Tracer
	cntFetches metric.Int64Counter
	cntCached  metric.Int64Counter
	cntRanges  metric.Int64Counter
	cntGuard   metric.Int64Counter
}

func NewSyncService(
	favorites FavoriteStore,
	ranges RangeStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	meter := otel.Meter(otelScope)
	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("create counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &SyncService{
		favorites: favorites,
		ranges:    NewRangeTracker(ranges, cfg),
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "sync"),
		config:    cfg,
		locks:     newOwnerLocks(),

		tracer:     otel.Tracer(otelScope),
		cntFetches: mustCounter(metricFetches, "Remote fetches issued while serving pages"),
		cntCached:  mustCounter(metricCached, "Favorites written to the cache"),
		cntRanges:  mustCounter(metricRanges, "Synchronized ranges recorded"),
		cntGuard:   mustCounter(metricGuardReached, "Backfill walks stopped by the iteration guard"),
	}
}

// pageRequest accumulates one page, newest-first, without duplicates.
type pageRequest struct {
	sess  *Session
	size  int
	acc   []domain.Favorite
	seen  map[string]struct{}
	stats domain.SyncStats
}

func newPageRequest(sess *Session, mode string, size int) *pageRequest {
	return &pageRequest{
		sess:  sess,
		size:  size,
		acc:   make([]domain.Favorite, 0, size),
		seen:  make(map[string]struct{}, size),
		stats: domain.SyncStats{OwnerID: sess.ownerID(), Mode: mode},
	}
}

// add appends unprocessed favorites not yet on the page.
func (p *pageRequest) add(favs []domain.Favorite) {
	for _, f := range favs {
		if f.Processed {
			continue
		}
		if _, dup := p.seen[f.RemoteID]; dup {
			continue
		}
		p.seen[f.RemoteID] = struct{}{}
		p.acc = append(p.acc, f)
	}
}

func (p *pageRequest) full() bool {
	return len(p.acc) >= p.size
}

func (p *pageRequest) remaining() int {
	return p.size - len(p.acc)
}

func (p *pageRequest) page() []domain.Favorite {
	if len(p.acc) > p.size {
		return p.acc[:p.size]
	}
	return p.acc
}

// Latest returns the newest page of unprocessed favorites.
func (s *SyncService) Latest(ctx context.Context, sess *Session) ([]domain.Favorite, error) {
	return s.serve(ctx, sess, domain.ModeLatest, s.latest)
}

// Before returns the page of unprocessed favorites older than the cached
// favorite whose remote id is beforeID.
func (s *SyncService) Before(ctx context.Context, sess *Session, beforeID string) ([]domain.Favorite, error) {
	return s.serve(ctx, sess, domain.ModeBefore, func(ctx context.Context, p *pageRequest) error {
		return s.before(ctx, p, beforeID)
	})
}

func (s *SyncService) serve(
	ctx context.Context,
	sess *Session,
	mode string,
	fill func(ctx context.Context, p *pageRequest) error,
) ([]domain.Favorite, error) {
	if sess == nil || sess.User == nil {
		return nil, domain.ErrUnauthenticated
	}

	startTime := time.Now()
	ctx, span := s.tracer.Start(ctx, "sync."+mode, trace.WithAttributes(
		attribute.String("owner.id", sess.ownerID()),
	))
	defer span.End()

	unlock, err := s.locks.lock(ctx, sess.ownerID())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("wait for owner lock: %w", err)
	}
	defer unlock()

	p := newPageRequest(sess, mode, s.config.PageSize)
	if err := fill(ctx, p); err != nil {
		span.RecordError(err)
		s.logger.Error("page request failed",
			"owner_id", sess.ownerID(),
			"mode", mode,
			"remote_fetches", p.stats.RemoteFetches,
			"error", err,
		)
		return nil, err
	}

	result := p.page()
	p.stats.Returned = len(result)
	p.stats.Duration = time.Since(startTime)

	span.SetAttributes(
		attribute.Int("sync.remote_fetches", p.stats.RemoteFetches),
		attribute.Int("sync.fetched", p.stats.Fetched),
		attribute.Int("sync.ranges_created", p.stats.RangesCreated),
		attribute.Int("sync.returned", p.stats.Returned),
	)

	s.logger.Info("page served",
		"owner_id", p.stats.OwnerID,
		"mode", p.stats.Mode,
		"remote_fetches", p.stats.RemoteFetches,
		"fetched", p.stats.Fetched,
		"ranges_created", p.stats.RangesCreated,
		"returned", p.stats.Returned,
		"duration", p.stats.Duration,
	)

	return result, nil
}

func (s *SyncService) latest(ctx context.Context, p *pageRequest) error {
	ownerID := p.sess.ownerID()

	top, err := s.ranges.Newest(ctx, ownerID)
	if err != nil {
		return err
	}

	q := domain.FetchQuery{ScreenName: p.sess.User.ScreenName, Count: s.config.PageSize}
	if top != nil {
		q.SinceID = top.StartID
	}

	fetched, recorded, err := s.fetch(ctx, p, q, nil, top)
	if err != nil {
		return err
	}

	// A full answer above top may leave a gap beneath it; serve only the
	// fetched span in that case and let the walk fill the gap.
	floor := top
	if recorded != nil && (top == nil || len(fetched) >= s.config.PageSize || recorded.EndID == top.EndID) {
		floor = recorded
	}

	filter := domain.FavoriteFilter{
		OwnerID:   ownerID,
		Processed: domain.Bool(false),
		Limit:     s.config.PageSize,
	}
	if floor != nil {
		filter.Since = floor.EndTime
	}

	cached, err := s.favorites.Query(ctx, filter)
	if err != nil {
		return fmt.Errorf("query cached favorites: %w", err)
	}
	p.add(cached)

	if len(p.acc) == 0 || p.full() || floor == nil || floor.IsLast {
		return nil
	}

	return s.walk(ctx, p, floor.End(), floor)
}

func (s *SyncService) before(ctx context.Context, p *pageRequest, beforeID string) error {
	ownerID := p.sess.ownerID()

	anchor, err := s.favorites.GetByRemoteID(ctx, ownerID, beforeID)
	if err != nil {
		return fmt.Errorf("find favorite %s: %w", beforeID, err)
	}

	r, err := s.ranges.Containing(ctx, ownerID, anchor.CreatedAt)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: favorite %s is outside every synchronized range", domain.ErrInconsistentState, beforeID)
	}

	cached, err := s.favorites.Query(ctx, domain.FavoriteFilter{
		OwnerID:        ownerID,
		Processed:      domain.Bool(false),
		Since:          r.EndTime,
		Before:         anchor.CreatedAt,
		BeforeRemoteID: anchor.RemoteID,
		Limit:          s.config.PageSize,
	})
	if err != nil {
		return fmt.Errorf("query cached favorites: %w", err)
	}
	p.add(cached)

	if p.full() {
		return nil
	}

	return s.walk(ctx, p, r.End(), r)
}

// walk extends the page toward older items, starting at cursor, the oldest
// synchronized position so far, which is the end of cursorRange.
func (s *SyncService) walk(ctx context.Context, p *pageRequest, cursor domain.Position, cursorRange *domain.Range) error {
	ownerID := p.sess.ownerID()

	for i := 0; !p.full(); i++ {
		if i >= s.config.MaxBackfillIterations {
			s.cntGuard.Add(ctx, 1)
			s.logger.Warn("backfill iteration guard reached",
				"owner_id", ownerID,
				"iterations", i,
				"accumulated", len(p.acc),
				"cursor_id", cursor.ID,
			)
			return nil
		}

		prev, err := s.ranges.Previous(ctx, ownerID, cursor.Time)
		if err != nil {
			return err
		}

		if cursorRange.IsLast && prev == nil {
			return nil
		}

		q := domain.FetchQuery{
			ScreenName: p.sess.User.ScreenName,
			Count:      s.config.PageSize,
			MaxID:      cursor.ID,
		}
		if prev != nil {
			q.SinceID = prev.StartID
		}

		fetched, recorded, err := s.fetch(ctx, p, q, cursorRange, prev)
		if err != nil {
			return err
		}
		p.add(fetched)

		if len(fetched) >= s.config.PageSize {
			cursor = recorded.End()
			cursorRange = recorded
			continue
		}

		if len(fetched) == 0 && prev == nil {
			if err := s.ranges.MarkLast(ctx, cursorRange); err != nil {
				return err
			}
		}

		if prev == nil {
			return nil
		}

		if p.full() {
			return nil
		}

		cached, err := s.favorites.Query(ctx, domain.FavoriteFilter{
			OwnerID:   ownerID,
			Processed: domain.Bool(false),
			Since:     prev.EndTime,
			Until:     prev.StartTime,
			Limit:     p.remaining(),
		})
		if err != nil {
			return fmt.Errorf("query cached favorites: %w", err)
		}
		p.add(cached)

		cursor = prev.End()
		cursorRange = prev
		if recorded != nil && recorded.EndID == prev.EndID {
			cursorRange = recorded
		}
	}

	return nil
}

// fetch calls the remote source, then stores the items and records the
// covered range in one transaction. Stored rows come back in remote order.
func (s *SyncService) fetch(
	ctx context.Context,
	p *pageRequest,
	q domain.FetchQuery,
	above, below *domain.Range,
) ([]domain.Favorite, *domain.Range, error) {
	ownerID := p.sess.ownerID()

	s.logger.Debug("fetching favorites",
		"owner_id", ownerID,
		"since_id", q.SinceID,
		"max_id", q.MaxID,
		"count", q.Count,
	)

	items, err := p.sess.Remote.ListFavorites(ctx, q)
	p.stats.RemoteFetches++
	s.cntFetches.Add(ctx, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch favorites: %w", err)
	}

	if len(items) == 0 {
		return nil, nil, nil
	}

	var (
		saved    []domain.Favorite
		recorded *domain.Range
	)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		saved, err = s.favorites.Save(txCtx, ownerID, items)
		if err != nil {
			return fmt.Errorf("save favorites: %w", err)
		}

		recorded, err = s.ranges.Record(txCtx, ownerID, items, q, above, below)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	p.stats.Fetched += len(saved)
	p.stats.RangesCreated++
	s.cntCached.Add(ctx, int64(len(saved)))
	s.cntRanges.Add(ctx, 1)

	s.publish(ctx, saved)

	return saved, recorded, nil
}

func (s *SyncService) publish(ctx context.Context, favs []domain.Favorite) {
	if s.publisher == nil {
		return
	}
	for i := range favs {
		if err := s.publisher.Publish(ctx, &favs[i], domain.ActionCached); err != nil {
			s.logger.Warn("publish favorite", "remote_id", favs[i].RemoteID, "error", err)
		}
	}
}
