package domain

import "time"

// Range is a contiguous, fully synchronized span of a user's remote timeline.
// Start is the newest end of the span, End the oldest.
type Range struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	OwnerID   string    `db:"owner_id" bson:"owner_id" json:"owner_id"`
	StartID   string    `db:"start_id" bson:"start_id" json:"start_id"`
	StartTime time.Time `db:"start_time" bson:"start_time" json:"start_time"`
	EndID     string    `db:"end_id" bson:"end_id" json:"end_id"`
	EndTime   time.Time `db:"end_time" bson:"end_time" json:"end_time"`
	IsLast    bool      `db:"is_last" bson:"is_last" json:"is_last"`
	CreatedAt time.Time `db:"created_at" bson:"created_at" json:"created_at"`
}

// Contains reports whether t falls inside [EndTime, StartTime].
func (r *Range) Contains(t time.Time) bool {
	return !t.Before(r.EndTime) && !t.After(r.StartTime)
}

// End returns the oldest position of the range.
func (r *Range) End() Position {
	return Position{ID: r.EndID, Time: r.EndTime}
}
