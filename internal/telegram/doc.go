// Package telegram implements the relay's transport: a minimal Bot API
// client and the bridge loop that feeds updates into the dialogue engine.
//
// The client speaks JSON over HTTPS directly, without a bot framework.
// Only three methods are needed: getUpdates (long poll), sendMessage, and
// deleteWebhook. Replies marked for rich formatting are rendered from
// markdown into the HTML subset Telegram accepts; a rejected HTML send is
// retried as plain text so formatting bugs never cost a reply.
//
// The bridge owns the long-poll loop. Poll failures back off exponentially
// and the loop never exits on its own; only context cancellation stops it.
// Every update passes through the dedupe cache before reaching the engine,
// then fans out to a per-sender worker: distinct users are handled
// concurrently while one user's messages stay in arrival order.
package telegram
