// ABOUTME: Access gate enforcing the configured allow-list before any processing
// ABOUTME: Pure predicate over sender identity; missing allow-list means deny all

package access

import (
	"strings"
)

// Identity is the transport-reported sender of a message. UserID is the
// stable platform id and the primary key for all state; Username is a
// mutable display alias and only a secondary lookup field.
type Identity struct {
	UserID   int64
	Username string
}

// Gate decides whether an identity may use the relay. The decision is a pure
// function of the configured allow-list: exact case-insensitive match on
// username, or exact match on numeric id. No wildcards, no partial matches.
type Gate struct {
	usernames map[string]struct{}
	ids       map[int64]struct{}
}

// NewGate builds a gate from allow-list entries. Each entry is either a
// username (leading "@" stripped) or a numeric user id. An empty list yields
// a gate that denies everyone.
func NewGate(usernames []string, ids []int64) *Gate {
	g := &Gate{
		usernames: make(map[string]struct{}, len(usernames)),
		ids:       make(map[int64]struct{}, len(ids)),
	}
	for _, u := range usernames {
		u = strings.TrimPrefix(strings.TrimSpace(u), "@")
		if u == "" {
			continue
		}
		g.usernames[strings.ToLower(u)] = struct{}{}
	}
	for _, id := range ids {
		g.ids[id] = struct{}{}
	}
	return g
}

// Authorize reports whether the identity is on the allow-list.
// An identity with neither a username nor a positive id is always denied.
// A sender without a username can still match by id, but never matches
// username-only entries.
func (g *Gate) Authorize(id Identity) bool {
	if id.UserID > 0 {
		if _, ok := g.ids[id.UserID]; ok {
			return true
		}
	}
	if id.Username != "" {
		name := strings.ToLower(strings.TrimPrefix(id.Username, "@"))
		if _, ok := g.usernames[name]; ok {
			return true
		}
	}
	return false
}

// Empty reports whether the gate has no entries at all. Callers use this to
// log the deny-all condition at startup; it never loosens the decision.
func (g *Gate) Empty() bool {
	return len(g.usernames) == 0 && len(g.ids) == 0
}
