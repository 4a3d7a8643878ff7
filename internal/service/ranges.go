package service

import (
	"context"
	"fmt"
	"time"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
)

// RangeTracker records which spans of a user's remote timeline are fully
// present in the local cache.
type RangeTracker struct {
	ranges      RangeStore
	pageSize    int
	consolidate bool
	now         func() time.Time
}

func NewRangeTracker(ranges RangeStore, cfg config.SyncConfig) *RangeTracker {
	return &RangeTracker{
		ranges:      ranges,
		pageSize:    cfg.PageSize,
		consolidate: cfg.ConsolidateRanges,
		now:         time.Now,
	}
}

func (t *RangeTracker) Newest(ctx context.Context, ownerID string) (*domain.Range, error) {
	r, err := t.ranges.Newest(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find newest range: %w", err)
	}
	return r, nil
}

func (t *RangeTracker) NewestBefore(ctx context.Context, ownerID string, before time.Time) (*domain.Range, error) {
	r, err := t.ranges.NewestBefore(ctx, ownerID, before)
	if err != nil {
		return nil, fmt.Errorf("find range before %s: %w", before.Format(time.RFC3339), err)
	}
	return r, nil
}

func (t *RangeTracker) Containing(ctx context.Context, ownerID string, at time.Time) (*domain.Range, error) {
	r, err := t.ranges.Containing(ctx, ownerID, at)
	if err != nil {
		return nil, fmt.Errorf("find range containing %s: %w", at.Format(time.RFC3339), err)
	}
	return r, nil
}

// Previous returns the range just below the boundary at t.
func (t *RangeTracker) Previous(ctx context.Context, ownerID string, at time.Time) (*domain.Range, error) {
	return t.NewestBefore(ctx, ownerID, at)
}

// Record stores the span covered by items, fetched with q. above is the
// range whose end was the max_id bound and below the range whose start was
// the since_id bound; either may be nil. Returns nil when items is empty.
func (t *RangeTracker) Record(
	ctx context.Context,
	ownerID string,
	items []domain.RemoteItem,
	q domain.FetchQuery,
	above, below *domain.Range,
) (*domain.Range, error) {
	if len(items) == 0 {
		return nil, nil
	}

	first, last := items[0], items[len(items)-1]
	r := &domain.Range{
		ID:        domain.NewID(),
		OwnerID:   ownerID,
		StartID:   first.ID,
		StartTime: first.CreatedAt,
		EndID:     last.ID,
		EndTime:   last.CreatedAt,
		IsLast:    q.SinceID == "" && len(items) < t.pageSize,
		CreatedAt: t.now().UTC(),
	}

	var merged []string
	if t.consolidate {
		merged = t.merge(r, items, q, above, below)
	}

	if err := t.ranges.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create range: %w", err)
	}
	if len(merged) > 0 {
		if err := t.ranges.Delete(ctx, ownerID, merged); err != nil {
			return nil, fmt.Errorf("delete merged ranges: %w", err)
		}
	}

	return r, nil
}

// merge widens r over the neighbours the fetch is proven contiguous with and
// returns the ids of the ranges it absorbed.
func (t *RangeTracker) merge(r *domain.Range, items []domain.RemoteItem, q domain.FetchQuery, above, below *domain.Range) []string {
	var absorbed []string

	if above != nil && q.MaxID != "" && q.MaxID == above.EndID {
		r.StartID = above.StartID
		r.StartTime = above.StartTime
		absorbed = append(absorbed, above.ID)
	}

	// a short answer means nothing is left between the items and since_id
	if below != nil && q.SinceID != "" && q.SinceID == below.StartID && len(items) < t.pageSize {
		r.EndID = below.EndID
		r.EndTime = below.EndTime
		r.IsLast = below.IsLast
		absorbed = append(absorbed, below.ID)
	}

	return absorbed
}

// MarkLast flags r as reaching the oldest item of the remote timeline.
func (t *RangeTracker) MarkLast(ctx context.Context, r *domain.Range) error {
	if r.IsLast {
		return nil
	}
	if err := t.ranges.MarkLast(ctx, r.OwnerID, r.ID); err != nil {
		return fmt.Errorf("mark range %s last: %w", r.ID, err)
	}
	r.IsLast = true
	return nil
}
