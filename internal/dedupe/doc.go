// Package dedupe provides a TTL cache for suppressing redelivered
// Telegram updates.
//
// The long-poll offset already makes delivery mostly exactly-once, but a
// crash between processing a batch and confirming the next offset makes
// Telegram resend it. The bridge runs every update ID through
// CheckAndMark before handing it to the engine; duplicates are dropped
// silently.
//
// The cache is bounded both by TTL and by size, so it cannot grow without
// limit under sustained traffic.
package dedupe
