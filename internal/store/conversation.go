// ABOUTME: ConversationStore owning all per-user profile and history state
// ABOUTME: Per-user locking, write-through snapshot persistence, no rollback on persist failure

package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/2389/synapse-relay/internal/style"
)

// userState bundles one user's profile and history under a dedicated lock so
// operations for distinct users never block each other.
type userState struct {
	mu      sync.Mutex
	profile Profile
	history []Turn
}

// ConversationStore is the single owner of all Profile and History state.
// Every read and write passes through its operations; the underlying maps
// are never handed out. Mutations are serialized per user key; ToggleDevMode
// and ClearAll take the store-wide lock exclusively.
//
// Persistence is write-through: each mutating operation flushes a fresh
// snapshot. A flush failure is logged and the in-memory state remains
// authoritative for the rest of the process lifetime.
type ConversationStore struct {
	persister Persister
	logger    *slog.Logger

	mu      sync.RWMutex
	users   map[int64]*userState
	devMode bool

	// flushMu serializes full-snapshot writes so two near-simultaneous
	// mutations cannot interleave partial states on disk.
	flushMu sync.Mutex
}

// NewConversationStore loads the persisted snapshot and returns a ready
// store. A missing or corrupt snapshot starts from empty state; it is
// logged, never fatal.
func NewConversationStore(persister Persister, logger *slog.Logger) *ConversationStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ConversationStore{
		persister: persister,
		logger:    logger.With("component", "store"),
		users:     make(map[int64]*userState),
	}

	snap, err := persister.Load()
	if err != nil {
		s.logger.Warn("snapshot load failed, starting from empty state", "error", err)
		return s
	}
	s.restore(snap)
	s.logger.Info("conversation store loaded", "users", len(s.users), "dev_mode", s.devMode)
	return s
}

// restore rebuilds in-memory state from a snapshot, repairing anything a
// previous build may have written outside the current invariants.
func (s *ConversationStore) restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.devMode = snap.DevMode
	for id, p := range snap.Profiles {
		if p == nil || id <= 0 {
			continue
		}
		profile := *p
		profile.UserID = id
		if !style.Valid(profile.Style) {
			profile.Style = style.TagNeutral
		}
		if profile.MessageCount < 0 {
			profile.MessageCount = 0
		}
		s.users[id] = &userState{profile: profile}
	}
	for id, turns := range snap.Histories {
		if id <= 0 {
			continue
		}
		us := s.users[id]
		if us == nil {
			us = &userState{profile: Profile{UserID: id, Style: style.TagNeutral}}
			s.users[id] = us
		}
		if len(turns) > HistoryCap {
			turns = turns[len(turns)-HistoryCap:]
		}
		us.history = append([]Turn(nil), turns...)
	}
}

// user returns the state for userID, creating it on first contact.
func (s *ConversationStore) user(userID int64) *userState {
	s.mu.RLock()
	us := s.users[userID]
	s.mu.RUnlock()
	if us != nil {
		return us
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if us = s.users[userID]; us == nil {
		us = &userState{profile: Profile{UserID: userID, Style: style.TagNeutral}}
		s.users[userID] = us
	}
	return us
}

// RecordUserTurn classifies the message style, increments the message
// counter, appends the user turn (evicting the oldest beyond HistoryCap)
// and flushes a snapshot. Username is refreshed as a display alias only.
func (s *ConversationStore) RecordUserTurn(userID int64, username, text string) {
	us := s.user(userID)

	us.mu.Lock()
	us.profile.Style = style.Classify(text)
	if username != "" {
		us.profile.Username = username
	}
	us.profile.MessageCount++
	us.history = appendTurn(us.history, Turn{Role: RoleUser, Text: text, Timestamp: time.Now()})
	us.mu.Unlock()

	s.persist()
}

// RecordAssistantTurn appends the assistant reply to the user's history and
// flushes a snapshot. It does not touch the message counter.
func (s *ConversationStore) RecordAssistantTurn(userID int64, text string) {
	us := s.user(userID)

	us.mu.Lock()
	us.history = appendTurn(us.history, Turn{Role: RoleAssistant, Text: text, Timestamp: time.Now()})
	us.mu.Unlock()

	s.persist()
}

// AppendPlan appends a plan to the user's profile and flushes a snapshot.
// Plans are append-only; nothing ever removes or reorders them.
func (s *ConversationStore) AppendPlan(userID int64, plan Plan) {
	us := s.user(userID)

	us.mu.Lock()
	us.profile.Plans = append(us.profile.Plans, plan)
	us.mu.Unlock()

	s.persist()
}

// SnapshotFor returns deep copies of one user's profile and history.
// Callers may mutate the returned values freely.
func (s *ConversationStore) SnapshotFor(userID int64) (Profile, []Turn, error) {
	s.mu.RLock()
	us := s.users[userID]
	s.mu.RUnlock()
	if us == nil {
		return Profile{}, nil, ErrNotFound
	}

	us.mu.Lock()
	defer us.mu.Unlock()
	return copyProfile(us.profile), append([]Turn(nil), us.history...), nil
}

// HistoryFor returns up to limit most recent turns for a user, oldest first.
func (s *ConversationStore) HistoryFor(userID int64, limit int) ([]Turn, error) {
	_, turns, err := s.SnapshotFor(userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// ListProfiles returns operator summaries for all known users, ordered by
// user id for stable output.
func (s *ConversationStore) ListProfiles() []ProfileSummary {
	s.mu.RLock()
	states := make(map[int64]*userState, len(s.users))
	for id, us := range s.users {
		states[id] = us
	}
	s.mu.RUnlock()

	summaries := make([]ProfileSummary, 0, len(states))
	for id, us := range states {
		us.mu.Lock()
		summaries = append(summaries, ProfileSummary{
			UserID:       id,
			Username:     us.profile.Username,
			Style:        us.profile.Style,
			MessageCount: us.profile.MessageCount,
			PlanCount:    len(us.profile.Plans),
			HistoryLen:   len(us.history),
		})
		us.mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].UserID < summaries[j].UserID })
	return summaries
}

// DevMode returns the current process-wide diagnostic flag.
func (s *ConversationStore) DevMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devMode
}

// ToggleDevMode flips the diagnostic flag and returns the new value.
// Privileged-only; the caller enforces who may call this.
func (s *ConversationStore) ToggleDevMode() bool {
	s.mu.Lock()
	s.devMode = !s.devMode
	v := s.devMode
	s.mu.Unlock()

	s.persist()
	return v
}

// ClearAll drops every profile and history. Privileged-only.
func (s *ConversationStore) ClearAll() {
	s.mu.Lock()
	s.users = make(map[int64]*userState)
	s.mu.Unlock()

	s.persist()
}

// Flush writes a snapshot immediately and reports the error, for explicit
// save commands and shutdown. Regular mutations persist through the same
// path but only log failures.
func (s *ConversationStore) Flush() error {
	return s.save()
}

// persist is the write-through hook behind every mutating operation.
func (s *ConversationStore) persist() {
	if err := s.save(); err != nil {
		s.logger.Error("snapshot save failed, in-memory state remains authoritative", "error", err)
	}
}

// snapshot deep-copies the complete state. User locks are held only briefly
// per user; the global lock is never held across the disk write.
func (s *ConversationStore) snapshot() *Snapshot {
	s.mu.RLock()
	states := make(map[int64]*userState, len(s.users))
	for id, us := range s.users {
		states[id] = us
	}
	devMode := s.devMode
	s.mu.RUnlock()

	snap := NewSnapshot()
	snap.DevMode = devMode
	for id, us := range states {
		us.mu.Lock()
		p := copyProfile(us.profile)
		snap.Profiles[id] = &p
		snap.Histories[id] = append([]Turn(nil), us.history...)
		us.mu.Unlock()
	}
	return snap
}

// save builds the snapshot and hands it to the persister under flushMu.
// Snapshotting inside the lock keeps writes ordered: a write that lands
// later was also captured later, so it never overwrites newer state with an
// older copy.
func (s *ConversationStore) save() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.persister.Save(s.snapshot())
}

// appendTurn appends and evicts oldest-first beyond HistoryCap.
func appendTurn(history []Turn, t Turn) []Turn {
	history = append(history, t)
	if len(history) > HistoryCap {
		history = history[len(history)-HistoryCap:]
	}
	return history
}

func copyProfile(p Profile) Profile {
	cp := p
	cp.Plans = make([]Plan, len(p.Plans))
	for i, plan := range p.Plans {
		cp.Plans[i] = plan
		cp.Plans[i].Steps = append([]string(nil), plan.Steps...)
	}
	return cp
}
