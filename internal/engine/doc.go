// ABOUTME: Package documentation for the dialogue engine
// ABOUTME: Explains the message lifecycle and the command surface

// Package engine implements the relay's dialogue logic. Every normalized
// inbound message passes through one entry point, HandleMessage, which
// gates access, decodes commands, and for plain messages runs the
// record-generate-record round-trip against the provider chain.
//
// The engine owns no transport and no persistence. It talks to the
// conversation store and the provider layer through small consumer
// interfaces, which keeps the round-trip testable with in-memory stubs.
//
// Provider failures never surface to the chat as errors. When the whole
// chain fails, the engine substitutes a deterministic local fallback reply
// and still records both turns, so history stays consistent regardless of
// provider health.
package engine
