package auth

import (
	"context"
	"fmt"
	"time"
)

// Namespace is the credential namespace this package claims on the host bus.
// Credentials arrive as "authenticate.livefyre" and logins are emitted as
// bus.Login with this key.
const Namespace = "livefyre"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Bus is the host pub/sub auth hub this package plugs into. It is an external
// collaborator; implementations live in the embedding page/application.
type Bus interface {
	// On subscribes to a bus event and returns an unsubscribe func.
	On(event string, handler func(data any)) (off func())
	// Authenticate submits namespaced credentials for verification.
	Authenticate(credentials map[string]any)
	// Login announces a verified, namespaced user.
	Login(credentials map[string]any)
	Logout()
	// Delegate registers the active login delegate.
	Delegate(d Delegate)
	HasDelegate() bool
	// Get returns the currently logged-in payload for a namespace, or nil.
	Get(namespace string) any
}

// Delegate is the current-generation login delegate contract supplied by the
// host page. Legacy delegates are wrapped into this shape by DelegateAdapter.
type Delegate interface {
	// Login starts an interactive login and reports the resulting
	// credentials through authenticate.
	Login(authenticate func(err error, credentials *Credentials))
	Logout(done func(err error))
	ViewProfile(profile map[string]any)
	EditProfile()
	// Destroy releases any subscriptions or timers held by the delegate.
	Destroy()
}

// Credentials is the livefyre-namespaced credential payload accepted by the
// bus. Exactly one of Token or User is typically set; a pre-built User skips
// the remote fetch.
type Credentials struct {
	Token     string
	ServerURL string
	User      *User
}

// Storage is the expiring key-value store used for session persistence.
// Backends live in the store subpackage.
type Storage interface {
	// Set stores value under key until expiresAt. A zero expiresAt means
	// the value never expires.
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	// Get returns the stored value. ok is false for missing or expired keys.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Remove(ctx context.Context, key string) error
}

// LegacyHandler is the positional {success, failure} handler object that
// old-generation delegates expect as their first argument.
type LegacyHandler struct {
	Success func()
	Failure func(err error)
}

// OldDelegate is the old-generation (conversation-era) delegate contract.
// Presence of LoginByCookie is its distinguishing capability.
type OldDelegate interface {
	Login(handler LegacyHandler)
	Logout()
	ViewProfile(handler LegacyHandler, profile map[string]any)
	EditProfile(handler LegacyHandler)
	// LoginByCookie probes for an existing cookie session.
	LoginByCookie()
}

// BetaDelegate is the sidenotes-beta-era delegate contract. Presence of
// RestoreSession is its distinguishing capability.
type BetaDelegate interface {
	Login()
	Logout()
	ViewProfile(profile map[string]any)
	EditProfile()
	RestoreSession()
	ServerURL() string
}

// LegacyEventSource is the beta-era global user emitter (historically
// Livefyre.user). The adapter listens for its login/logout events.
type LegacyEventSource interface {
	Once(event string, handler func(data any)) (off func())
}

// LegacyUserSource is the old-era conversation auth namespace (historically
// fyre.conv). It exposes the legacy user's token and a readiness latch.
type LegacyUserSource interface {
	// OnTokenChange subscribes to legacy token changes and returns an
	// unsubscribe func.
	OnTokenChange(handler func(token string)) (off func())
	Token() string
	UserID() string
	ReadyFired() bool
	FireReady()
}

// LegacyEnv carries explicit references to the legacy page-level singletons a
// delegate generation may depend on. A nil field means that environment is
// absent, which disqualifies the matching generation during classification.
type LegacyEnv struct {
	EventSource LegacyEventSource
	UserSource  LegacyUserSource
}

// LegacyModule is a late-arriving legacy auth module (historically fyre.conv
// on the page). Plugin polls for it with bounded backoff and consumes its
// delegate once ready.
type LegacyModule interface {
	// Ready registers fn to run once the module has initialized. It
	// returns false when the module is not (yet) present on the page.
	Ready(fn func()) bool
	// GetDelegate returns the module's delegate, if one is registered.
	GetDelegate() (delegate any, ok bool)
}

// MetaDelegate marks wrapper delegates that must not be consumed from a
// legacy module (they proxy back into this package).
type MetaDelegate interface {
	MetaDelegate() bool
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
