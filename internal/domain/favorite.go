package domain

import (
	"strings"
	"time"
)

// Favorite is the cached copy of one liked remote item.
type Favorite struct {
	ID           string    `db:"id" bson:"_id" json:"id"`
	RemoteID     string    `db:"remote_id" bson:"remote_id" json:"id_str"`
	OwnerID      string    `db:"owner_id" bson:"owner_id" json:"owner_id"`
	Text         *string   `db:"text" bson:"text,omitempty" json:"text,omitempty"`
	CreatedAt    time.Time `db:"created_at" bson:"created_at" json:"created_at"`
	Processed    bool      `db:"processed" bson:"processed" json:"processed"`
	CollectionID *string   `db:"collection_id" bson:"collection_id,omitempty" json:"collection_id,omitempty"`
	CachedAt     time.Time `db:"cached_at" bson:"cached_at" json:"cached_at"`
}

// FavoritePatch holds the fields a filing operation may change.
type FavoritePatch struct {
	Processed    *bool
	CollectionID *string
}

// FavoriteFilter selects cached favorites. Zero-valued fields do not filter.
// Results are always ordered newest-first by CreatedAt.
type FavoriteFilter struct {
	OwnerID      string
	Processed    *bool
	CollectionID string
	Since        time.Time // created_at >= Since
	Until        time.Time // created_at <= Until
	Before       time.Time // created_at < Before
	// BeforeRemoteID turns Before into a compound cursor: items created at
	// exactly Before are kept when their remote id orders below this one.
	BeforeRemoteID string
	Limit          int
}

func (q FavoriteFilter) beforeCursor(f *Favorite) bool {
	if f.CreatedAt.Before(q.Before) {
		return true
	}
	return q.BeforeRemoteID != "" && f.CreatedAt.Equal(q.Before) &&
		CompareRemoteIDs(f.RemoteID, q.BeforeRemoteID) < 0
}

// Matches reports whether f satisfies every set field of the filter.
func (q FavoriteFilter) Matches(f *Favorite) bool {
	if q.OwnerID != "" && f.OwnerID != q.OwnerID {
		return false
	}
	if q.Processed != nil && f.Processed != *q.Processed {
		return false
	}
	if q.CollectionID != "" && (f.CollectionID == nil || *f.CollectionID != q.CollectionID) {
		return false
	}
	if !q.Since.IsZero() && f.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && f.CreatedAt.After(q.Until) {
		return false
	}
	if !q.Before.IsZero() && !q.beforeCursor(f) {
		return false
	}
	return true
}

// RemoteItem is the normalized shape of one liked item returned by the remote API.
type RemoteItem struct {
	ID        string
	CreatedAt time.Time
	Text      *string
}

// FetchQuery bounds one logical fetch from the remote source.
// SinceID is exclusive, MaxID is inclusive on the wire.
type FetchQuery struct {
	ScreenName string
	Count      int
	SinceID    string
	MaxID      string
}

// Position is a point of the remote timeline.
type Position struct {
	ID   string
	Time time.Time
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// CompareRemoteIDs orders opaque numeric remote ids without parsing them:
// a longer id is the larger one, equal lengths compare lexically.
func CompareRemoteIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Newer reports whether a sorts before b in newest-first order.
func Newer(a, b *Favorite) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return CompareRemoteIDs(a.RemoteID, b.RemoteID) > 0
}
