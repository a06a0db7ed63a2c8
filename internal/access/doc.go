// Package access implements the relay's allow-list gate.
//
// Authorization is a pure membership check against usernames and numeric
// user IDs from configuration. The gate fails closed: an empty allow-list
// denies everyone, and nothing a message contains can widen access at
// runtime.
package access
