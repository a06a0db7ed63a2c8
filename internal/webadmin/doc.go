// Package webadmin serves the operator's JSON facade over the
// conversation store.
//
// Three resources are exposed: the user list with profile summaries, a
// per-user history page (the most recent turns, capped at a fixed page
// size), and the dev mode flag. All endpoints are read-only except the
// dev mode toggle.
//
// Authentication is a bearer JWT verified on every request. There are no
// sessions, no cookies, and no login flow; the operator mints tokens out
// of band with the shared secret.
package webadmin
