// Package launch tracks in-flight application launch sequences.
package launch

import (
	"slices"
	"time"
)

const (
	// Timeout is how long a launch may stay outstanding before it is reaped.
	Timeout = 20 * time.Second

	// FrameCount is the number of hourglass animation frames.
	FrameCount = 8

	// TickInterval is the period of the sweep tick. It drives frame advance and
	// expiry detection, so an abandoned launch is reaped at most one tick after
	// its deadline.
	TickInterval = 100 * time.Millisecond
)

// Record is one outstanding launch sequence.
type Record struct {
	ID       string    `json:"id" yaml:"id"`
	Deadline time.Time `json:"deadline" yaml:"deadline"`
}

// Expired reports whether the record's deadline has been reached at now.
func (r Record) Expired(now time.Time) bool {
	return !r.Deadline.After(now)
}

// Tracker holds the outstanding launches in insertion order, oldest first.
//
// IDs are not required to be unique. Initiating the same id twice yields two
// records, and every removal targets the oldest matching record only.
//
// Tracker is not safe for concurrent use; it is owned by the control loop.
type Tracker struct {
	records []Record
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Initiate appends a record for id with a deadline of now + Timeout.
func (t *Tracker) Initiate(id string, now time.Time) {
	t.records = append(t.records, Record{
		ID:       id,
		Deadline: now.Add(Timeout),
	})
}

// Complete removes the oldest record for id. It returns false if there was
// no such record.
func (t *Tracker) Complete(id string) bool {
	return t.removeFirst(func(r Record) bool { return r.ID == id })
}

// Cancel removes the oldest record for id. Cancellation and completion are
// handled identically.
func (t *Tracker) Cancel(id string) bool {
	return t.removeFirst(func(r Record) bool { return r.ID == id })
}

// SweepOneExpired removes the first record, in insertion order, whose deadline
// is at or before now. At most one record is removed per call. The removed
// record is returned with ok set to true.
func (t *Tracker) SweepOneExpired(now time.Time) (Record, bool) {
	i := slices.IndexFunc(t.records, func(r Record) bool { return r.Expired(now) })
	if i < 0 {
		return Record{}, false
	}
	r := t.records[i]
	t.records = slices.Delete(t.records, i, i+1)
	return r, true
}

// IsEmpty reports whether no launches are outstanding.
func (t *Tracker) IsEmpty() bool {
	return len(t.records) == 0
}

// Len returns the number of outstanding records.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Records returns a copy of the outstanding records, oldest first.
func (t *Tracker) Records() []Record {
	return slices.Clone(t.records)
}

func (t *Tracker) removeFirst(match func(Record) bool) bool {
	i := slices.IndexFunc(t.records, match)
	if i < 0 {
		return false
	}
	t.records = slices.Delete(t.records, i, i+1)
	return true
}
