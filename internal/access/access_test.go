// ABOUTME: Tests for the access gate allow-list predicate
// ABOUTME: Covers case-insensitive username match, id match, and fail-closed behavior

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_DeniesUnlistedUsername(t *testing.T) {
	g := NewGate([]string{"alice", "bob"}, nil)

	assert.False(t, g.Authorize(Identity{UserID: 99, Username: "eve"}))
}

func TestGate_AllowsListedUsernameCaseInsensitive(t *testing.T) {
	g := NewGate([]string{"alice", "bob"}, nil)

	assert.True(t, g.Authorize(Identity{UserID: 1, Username: "alice"}))
	assert.True(t, g.Authorize(Identity{UserID: 1, Username: "ALICE"}))
	assert.True(t, g.Authorize(Identity{UserID: 2, Username: "Bob"}))
}

func TestGate_AllowsByNumericID(t *testing.T) {
	g := NewGate(nil, []int64{42})

	assert.True(t, g.Authorize(Identity{UserID: 42}))
	assert.False(t, g.Authorize(Identity{UserID: 43}))
}

func TestGate_IDMatchIgnoresUsername(t *testing.T) {
	// Renamed users keep access when listed by stable id.
	g := NewGate(nil, []int64{42})

	assert.True(t, g.Authorize(Identity{UserID: 42, Username: "renamed_alias"}))
}

func TestGate_UsernamelessSenderAgainstUsernameOnlyList(t *testing.T) {
	// Username-only allow-list can never match a sender without a username.
	g := NewGate([]string{"alice"}, nil)

	assert.False(t, g.Authorize(Identity{UserID: 42}))
}

func TestGate_EmptyListDeniesAll(t *testing.T) {
	g := NewGate(nil, nil)

	assert.True(t, g.Empty())
	assert.False(t, g.Authorize(Identity{UserID: 1, Username: "anyone"}))
	assert.False(t, g.Authorize(Identity{}))
}

func TestGate_StripsAtPrefix(t *testing.T) {
	g := NewGate([]string{"@alice"}, nil)

	assert.True(t, g.Authorize(Identity{UserID: 1, Username: "alice"}))
	assert.True(t, g.Authorize(Identity{UserID: 1, Username: "@alice"}))
}

func TestGate_NoPartialMatches(t *testing.T) {
	g := NewGate([]string{"alice"}, nil)

	assert.False(t, g.Authorize(Identity{UserID: 1, Username: "alice2"}))
	assert.False(t, g.Authorize(Identity{UserID: 1, Username: "alic"}))
}

func TestGate_SkipsBlankEntries(t *testing.T) {
	g := NewGate([]string{"", "  ", "alice"}, nil)

	assert.False(t, g.Authorize(Identity{UserID: 1, Username: ""}))
	assert.True(t, g.Authorize(Identity{UserID: 1, Username: "alice"}))
}
