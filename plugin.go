package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// errLegacyModuleNotReady drives the bounded legacy-module poll.
var errLegacyModuleNotReady = errors.New("legacy auth module not ready")

// PluginOptions configures the orchestrator. Zero values get sensible
// defaults; only Bus is mandatory (passed to NewPlugin directly).
type PluginOptions struct {
	// ServerURL overrides origin derivation for bare-token credentials.
	// Only needed off the production cluster.
	ServerURL string
	Client    *Client
	Users     *UserService
	Sessions  *SessionStore
	LegacyEnv LegacyEnv
	// LegacyModule, when present, is polled for a late-arriving delegate.
	LegacyModule LegacyModule
	Logger       Logger

	// Bounded poll for the legacy module: PollAttempts tries, the nth
	// spaced by n*PollStep (linear backoff), then give up silently.
	PollAttempts int
	PollStep     time.Duration
}

// Plugin wires the package into the host bus: restores the session on
// startup, authenticates livefyre credentials on demand, persists sessions
// after login, and clears them on logout.
type Plugin struct {
	bus      Bus
	users    *UserService
	sessions *SessionStore
	adapter  *DelegateAdapter
	legacy   LegacyModule
	logger   Logger

	serverURL    string
	pollAttempts int
	pollStep     time.Duration

	offs []func()
}

// NewPlugin builds the orchestrator. Call Start to begin handling events.
func NewPlugin(bus Bus, opts PluginOptions) *Plugin {
	logger := opts.Logger
	if logger == nil {
		logger = defLogger{}
	}
	client := opts.Client
	if client == nil {
		client = NewClient().WithLogger(logger)
	}
	users := opts.Users
	if users == nil {
		users = NewUserService(client).WithLogger(logger)
	}
	sessions := opts.Sessions
	attempts := opts.PollAttempts
	if attempts <= 0 {
		attempts = 15
	}
	step := opts.PollStep
	if step <= 0 {
		step = 100 * time.Millisecond
	}

	return &Plugin{
		bus:          bus,
		users:        users,
		sessions:     sessions,
		adapter:      NewDelegateAdapter(bus, opts.LegacyEnv).WithLogger(logger),
		legacy:       opts.LegacyModule,
		logger:       logger,
		serverURL:    opts.ServerURL,
		pollAttempts: attempts,
		pollStep:     step,
	}
}

// Start restores any saved session, subscribes to bus events, and begins
// polling for a late-arriving legacy module. Session restoration errors are
// logged and swallowed; a corrupt stored session must never block startup.
func (p *Plugin) Start(ctx context.Context) {
	if p.sessions != nil {
		user, err := p.sessions.Get(ctx)
		if err != nil {
			p.logger.Debug("session restore failed: %v", err)
		}
		if user != nil {
			p.login(user)
		}
	}

	p.offs = append(p.offs,
		p.bus.On("authenticate."+Namespace, func(data any) {
			p.handleAuthenticate(ctx, data)
		}),
		p.bus.On(EventLogout, func(any) {
			if p.sessions != nil {
				p.sessions.Clear(ctx)
			}
		}),
	)

	if p.legacy != nil {
		go p.pollLegacyModule(ctx)
	}
}

// Stop unsubscribes from the bus.
func (p *Plugin) Stop() {
	for _, off := range p.offs {
		off()
	}
	p.offs = nil
}

// Delegate adapts a host-supplied delegate (any generation) and registers it
// on the bus.
func (p *Plugin) Delegate(candidate any) {
	adapted := p.adapter.Adapt(candidate)
	if adapted == nil {
		return
	}
	p.bus.Delegate(adapted)
}

// handleAuthenticate turns livefyre credentials into a login. A pre-built
// user skips the remote fetch; the delegate's login flow already produced
// it. Failed authentication leaves the model untouched and emits nothing.
func (p *Plugin) handleAuthenticate(ctx context.Context, data any) {
	var req AuthRequest
	switch creds := data.(type) {
	case nil:
		return
	case string:
		req = AuthRequest{Token: creds, ServerURL: p.serverURL}
	case *User:
		p.login(creds)
		return
	case *Credentials:
		if creds == nil {
			return
		}
		if creds.User != nil {
			p.login(creds.User)
			return
		}
		req = AuthRequest{Token: creds.Token, ServerURL: creds.ServerURL}
		if req.ServerURL == "" {
			req.ServerURL = p.serverURL
		}
	case Credentials:
		if creds.User != nil {
			p.login(creds.User)
			return
		}
		req = AuthRequest{Token: creds.Token, ServerURL: creds.ServerURL}
		if req.ServerURL == "" {
			req.ServerURL = p.serverURL
		}
	case AuthRequest:
		req = creds
		if req.ServerURL == "" {
			req.ServerURL = p.serverURL
		}
	default:
		p.logger.Warn("unsupported credential payload: %T", data)
		return
	}

	user, resp, err := p.users.Fetch(ctx, req)
	if err != nil {
		p.logger.Info("authentication failed: %v", err)
		return
	}
	if p.sessions != nil {
		if err := p.sessions.Save(ctx, resp, user); err != nil {
			p.logger.Warn("failed to persist session: %v", err)
		}
	}
	p.login(user)
}

func (p *Plugin) login(user *User) {
	p.bus.Login(map[string]any{Namespace: user})
}

// pollLegacyModule waits for a legacy auth module to appear on the page,
// with linearly increasing backoff. Gives up silently after the attempt cap.
func (p *Plugin) pollLegacyModule(ctx context.Context) {
	attempt := 0
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		if attempt >= p.pollAttempts {
			return 0, true
		}
		return time.Duration(attempt) * p.pollStep, false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if p.bus.HasDelegate() {
			return nil
		}
		if p.legacy.Ready(p.scheduleLegacyConsume) {
			return nil
		}
		return retry.RetryableError(errLegacyModuleNotReady)
	})
	if err != nil {
		p.logger.Debug("legacy auth module never arrived: %v", err)
	}
}

// scheduleLegacyConsume moves delegate consumption off the Ready callback.
// A module is free to invoke the callback while holding its own lock, and
// consuming calls straight back into GetDelegate.
func (p *Plugin) scheduleLegacyConsume() {
	go p.consumeLegacyDelegate()
}

func (p *Plugin) consumeLegacyDelegate() {
	if p.bus.HasDelegate() {
		return
	}
	candidate, ok := p.legacy.GetDelegate()
	if !ok || candidate == nil {
		return
	}
	if meta, isMeta := candidate.(MetaDelegate); isMeta && meta.MetaDelegate() {
		return
	}
	p.Delegate(candidate)
}
