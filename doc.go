// Package auth normalizes Livefyre-style credentials (lftokens, legacy login
// delegates) into a single observable user/session model.
//
// Credentials flow:
//   - A token or delegate arrives through the host event bus.
//   - Client calls the remote auth endpoint and maps the always-200 envelope
//     into a response or a structured error.
//   - UpdateUser merges profile attributes and authorization grants
//     (collection/network/site moderator scopes) into the User model,
//     de-duplicating grants by current moderator status.
//   - SessionStore persists the raw response plus the derived mod map so the
//     user survives page loads; Plugin restores it on startup and emits
//     login/logout on the bus.
//
// Delegate adaptation:
//   - DelegateAdapter classifies a host-supplied delegate into one of three
//     generations (current, old, beta) and wraps the legacy ones in the
//     current Delegate contract, translating callback and event conventions.
//     Legacy page-level singletons are injected via LegacyEnv so nothing
//     reaches for ambient globals.
//
// The package only consumes externally issued tokens; it never mints or
// verifies credentials itself.
package auth
