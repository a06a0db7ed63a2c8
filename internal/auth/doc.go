// Package auth provides JWT verification for the operator facade.
//
// Tokens are HS256 signed with a shared secret from configuration. The
// verifier checks the signature, the expiry, and the "sub" claim on every
// request; nothing is cached, so rotating the secret locks out existing
// tokens at once.
package auth
