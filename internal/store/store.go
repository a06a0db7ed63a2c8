// ABOUTME: Data types and persister contract for conversation state
// ABOUTME: Defines Profile, Plan, Turn, Snapshot and the Persister interface

package store

import (
	"errors"
	"time"

	"github.com/2389/synapse-relay/internal/style"
)

// ErrNotFound is returned when a requested user has no recorded state.
var ErrNotFound = errors.New("not found")

// HistoryCap is the maximum number of turns retained per user. Older turns
// are evicted first when the cap is exceeded.
const HistoryCap = 200

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation, tagged with its speaker role.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Plan is one goal a user asked the relay to break down.
type Plan struct {
	ID        string    `json:"id"`
	Goal      string    `json:"goal"`
	Days      int       `json:"days"`
	Steps     []string  `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the derived per-user state. UserID is the stable platform id
// and the primary key everywhere; Username is a mutable display alias kept
// only for operator convenience.
type Profile struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Style        style.Tag `json:"style"`
	MessageCount int       `json:"message_count"`
	Plans        []Plan    `json:"plans,omitempty"`
}

// Snapshot is the complete serializable state of the store at a point in
// time. It is written after every mutating operation and loaded once at
// process start.
type Snapshot struct {
	Profiles  map[int64]*Profile `json:"profiles"`
	Histories map[int64][]Turn   `json:"histories"`
	DevMode   bool               `json:"dev_mode"`
}

// NewSnapshot returns an empty snapshot with initialized maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Profiles:  make(map[int64]*Profile),
		Histories: make(map[int64][]Turn),
	}
}

// Persister is the persistence medium for snapshots. Save must be atomic
// with respect to crashes (write-to-temp-then-rename or a transactional
// equivalent). Load must return an empty snapshot, not an error, when no
// snapshot has been written yet.
type Persister interface {
	Load() (*Snapshot, error)
	Save(snapshot *Snapshot) error
	Close() error
}

// ProfileSummary is the operator-facing view of one user.
type ProfileSummary struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Style        style.Tag `json:"style"`
	MessageCount int       `json:"message_count"`
	PlanCount    int       `json:"plan_count"`
	HistoryLen   int       `json:"history_len"`
}
