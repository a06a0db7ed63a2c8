// ABOUTME: Normalized transport message contracts consumed and produced by the engine
// ABOUTME: Transports map their native envelopes to these and back

package engine

import "time"

// IncomingMessage is a normalized inbound chat message. Username may be
// empty; UserID is the stable identity used for all state and access
// decisions.
type IncomingMessage struct {
	UserID    int64
	Username  string
	ChatID    int64
	Text      string
	Timestamp time.Time
}

// OutgoingMessage is the reply handed back to the transport.
// RichFormatting signals that Text may carry markup the transport should
// render rather than escape.
type OutgoingMessage struct {
	ChatID         int64
	Text           string
	RichFormatting bool
}
