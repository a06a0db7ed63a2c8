// ABOUTME: Tests for ConversationStore operations and invariants
// ABOUTME: Covers history cap, counter isolation, dev mode, clear, and persist-failure behavior

package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/synapse-relay/internal/style"
)

// memPersister keeps the last saved snapshot in memory.
type memPersister struct {
	mu    sync.Mutex
	saved *Snapshot
	saves int
	fail  bool
}

func (m *memPersister) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return NewSnapshot(), nil
	}
	return m.saved, nil
}

func (m *memPersister) Save(snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.fail {
		return errors.New("disk full")
	}
	m.saved = snap
	return nil
}

func (m *memPersister) Close() error { return nil }

func newTestStore(t *testing.T) (*ConversationStore, *memPersister) {
	t.Helper()
	p := &memPersister{}
	return NewConversationStore(p, nil), p
}

func TestRecordUserTurn_UpdatesProfileAndHistory(t *testing.T) {
	s, _ := newTestStore(t)

	s.RecordUserTurn(1, "alice", "как увеличить продажи")

	profile, history, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.UserID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, style.TagBusiness, profile.Style)
	assert.Equal(t, 1, profile.MessageCount)
	require.Len(t, history, 1)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "как увеличить продажи", history[0].Text)
}

func TestRecordUserTurn_StyleOverwritesPrevious(t *testing.T) {
	s, _ := newTestStore(t)

	s.RecordUserTurn(1, "alice", "продажи и деньги")
	s.RecordUserTurn(1, "alice", "расскажи о погоде")

	profile, _, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Equal(t, style.TagNeutral, profile.Style)
	assert.Equal(t, 2, profile.MessageCount)
}

func TestHistory_CapEvictsOldestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 0; i < HistoryCap+1; i++ {
		s.RecordUserTurn(1, "alice", fmt.Sprintf("message %d", i))
	}

	_, history, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Len(t, history, HistoryCap)
	// message 0 evicted, oldest remaining is message 1
	assert.Equal(t, "message 1", history[0].Text)
	assert.Equal(t, fmt.Sprintf("message %d", HistoryCap), history[len(history)-1].Text)
}

func TestRoundTrip_ThreeMessagesSixTurns(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		s.RecordUserTurn(1, "alice", "расскажи о погоде")
		s.RecordAssistantTurn(1, "сегодня солнечно")
	}

	profile, history, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.MessageCount)
	require.Len(t, history, 6)
	for i, turn := range history {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, turn.Role)
		} else {
			assert.Equal(t, RoleAssistant, turn.Role)
		}
		if i > 0 {
			assert.False(t, turn.Timestamp.Before(history[i-1].Timestamp),
				"history must stay chronological")
		}
	}
}

func TestMessageCount_IsolatedAcrossUsers(t *testing.T) {
	s, _ := newTestStore(t)
	const perUser = 50

	var wg sync.WaitGroup
	for _, id := range []int64{1, 2, 3} {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				s.RecordUserTurn(userID, "", "hello")
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []int64{1, 2, 3} {
		profile, _, err := s.SnapshotFor(id)
		require.NoError(t, err)
		assert.Equal(t, perUser, profile.MessageCount, "user %d", id)
	}
}

func TestAppendPlan(t *testing.T) {
	s, _ := newTestStore(t)

	s.AppendPlan(1, Plan{ID: "p1", Goal: "выучить язык", Days: 10, Steps: []string{"step 1"}})
	s.AppendPlan(1, Plan{ID: "p2", Goal: "run a marathon", Days: 30, Steps: []string{"step 1"}})

	profile, _, err := s.SnapshotFor(1)
	require.NoError(t, err)
	require.Len(t, profile.Plans, 2)
	assert.Equal(t, "выучить язык", profile.Plans[0].Goal)
	assert.Equal(t, 10, profile.Plans[0].Days)
}

func TestSnapshotFor_ReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordUserTurn(1, "alice", "hello")
	s.AppendPlan(1, Plan{ID: "p1", Goal: "goal", Steps: []string{"a"}})

	profile, history, err := s.SnapshotFor(1)
	require.NoError(t, err)

	// Mutating the copies must not leak into the store.
	profile.Plans[0].Steps[0] = "tampered"
	history[0].Text = "tampered"

	fresh, freshHistory, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Equal(t, "a", fresh.Plans[0].Steps[0])
	assert.Equal(t, "hello", freshHistory[0].Text)
}

func TestSnapshotFor_UnknownUser(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.SnapshotFor(404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryFor_Limit(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 10; i++ {
		s.RecordUserTurn(1, "", fmt.Sprintf("m%d", i))
	}

	turns, err := s.HistoryFor(1, 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "m7", turns[0].Text)
	assert.Equal(t, "m9", turns[2].Text)
}

func TestToggleDevMode(t *testing.T) {
	s, _ := newTestStore(t)

	assert.False(t, s.DevMode())
	assert.True(t, s.ToggleDevMode())
	assert.True(t, s.DevMode())
	assert.False(t, s.ToggleDevMode())
}

func TestClearAll(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordUserTurn(1, "alice", "hello")
	s.RecordUserTurn(2, "bob", "hi")

	s.ClearAll()

	assert.Empty(t, s.ListProfiles())
	_, _, err := s.SnapshotFor(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistFailure_DoesNotRollBack(t *testing.T) {
	p := &memPersister{fail: true}
	s := NewConversationStore(p, nil)

	s.RecordUserTurn(1, "alice", "hello")

	// In-memory state stays authoritative despite the save error.
	profile, history, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.MessageCount)
	assert.Len(t, history, 1)
	assert.Error(t, s.Flush())
}

func TestFinalSave_ContainsAllMutations(t *testing.T) {
	s, p := newTestStore(t)
	const perUser = 25
	users := []int64{1, 2, 3, 4}

	var wg sync.WaitGroup
	for _, id := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				s.RecordUserTurn(userID, "", fmt.Sprintf("m%d", i))
			}
		}(id)
	}
	wg.Wait()

	// The last write took the flush lock after every other save released it,
	// so the snapshot on disk carries every finished mutation. A snapshot
	// captured outside the lock could land last with stale state.
	p.mu.Lock()
	saved := p.saved
	p.mu.Unlock()
	require.NotNil(t, saved)
	for _, id := range users {
		assert.Len(t, saved.Histories[id], perUser, "user %d history", id)
		require.NotNil(t, saved.Profiles[id], "user %d profile", id)
		assert.Equal(t, perUser, saved.Profiles[id].MessageCount, "user %d count", id)
	}
}

func TestWriteThrough_SavesAfterEveryMutation(t *testing.T) {
	s, p := newTestStore(t)

	s.RecordUserTurn(1, "alice", "hello")
	s.RecordAssistantTurn(1, "hi")
	s.AppendPlan(1, Plan{ID: "p1", Goal: "g"})
	s.ToggleDevMode()
	s.ClearAll()

	assert.Equal(t, 5, p.saves)
}

func TestListProfiles_SortedByUserID(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordUserTurn(3, "carol", "hello")
	s.RecordUserTurn(1, "alice", "hello")
	s.RecordUserTurn(2, "bob", "hello")

	summaries := s.ListProfiles()
	require.Len(t, summaries, 3)
	assert.Equal(t, int64(1), summaries[0].UserID)
	assert.Equal(t, int64(2), summaries[1].UserID)
	assert.Equal(t, int64(3), summaries[2].UserID)
	assert.Equal(t, 1, summaries[0].MessageCount)
	assert.Equal(t, 1, summaries[0].HistoryLen)
}

func TestRestore_RepairsInvalidState(t *testing.T) {
	p := &memPersister{saved: &Snapshot{
		Profiles: map[int64]*Profile{
			1: {UserID: 1, Style: style.Tag("bogus"), MessageCount: -5},
		},
		Histories: map[int64][]Turn{
			2: {{Role: RoleUser, Text: "orphan history"}},
		},
	}}
	s := NewConversationStore(p, nil)

	profile, _, err := s.SnapshotFor(1)
	require.NoError(t, err)
	assert.Equal(t, style.TagNeutral, profile.Style)
	assert.Equal(t, 0, profile.MessageCount)

	// History without a profile still loads, with a default profile.
	profile2, history2, err := s.SnapshotFor(2)
	require.NoError(t, err)
	assert.Equal(t, style.TagNeutral, profile2.Style)
	require.Len(t, history2, 1)
	assert.Equal(t, "orphan history", history2[0].Text)
}
