package auth

import "sync"

// DelegateGeneration tags the three known generations of login delegate.
// The union is closed; classification is explicit, not ad-hoc probing.
type DelegateGeneration int

const (
	GenerationCurrent DelegateGeneration = iota
	GenerationOld
	GenerationBeta
)

func (g DelegateGeneration) String() string {
	switch g {
	case GenerationOld:
		return "old"
	case GenerationBeta:
		return "beta"
	default:
		return "current"
	}
}

// ClassifyDelegate decides which generation candidate belongs to. A legacy
// generation requires both the capability (the marker method set) and its
// legacy environment; first match wins.
func ClassifyDelegate(candidate any, env LegacyEnv) DelegateGeneration {
	if _, ok := candidate.(BetaDelegate); ok && env.EventSource != nil {
		return GenerationBeta
	}
	if _, ok := candidate.(OldDelegate); ok && env.UserSource != nil {
		return GenerationOld
	}
	return GenerationCurrent
}

// DelegateAdapter wraps legacy delegates in the current Delegate contract.
// Legacy singletons are injected through env so tests can substitute fakes.
type DelegateAdapter struct {
	bus    Bus
	env    LegacyEnv
	logger Logger
}

func NewDelegateAdapter(bus Bus, env LegacyEnv) *DelegateAdapter {
	return &DelegateAdapter{bus: bus, env: env, logger: defLogger{}}
}

func (a *DelegateAdapter) WithLogger(logger Logger) *DelegateAdapter {
	a.logger = logger
	return a
}

// Adapt returns candidate wrapped in the current delegate contract.
// Adaptation itself never fails; failures surface later through the wrapped
// methods' callbacks. A current-generation candidate passes through
// unchanged; anything unrecognized yields nil.
func (a *DelegateAdapter) Adapt(candidate any) Delegate {
	switch ClassifyDelegate(candidate, a.env) {
	case GenerationBeta:
		return a.adaptBeta(candidate.(BetaDelegate))
	case GenerationOld:
		return a.adaptOld(candidate.(OldDelegate))
	default:
		if d, ok := candidate.(Delegate); ok {
			return d
		}
		a.logger.Warn("delegate does not satisfy any known generation: %T", candidate)
		return nil
	}
}

// subscriptions tracks unsubscribe funcs so adapted delegates can tear down
// on logout/destroy without leaking listeners across delegate swaps.
type subscriptions struct {
	mu   sync.Mutex
	offs []func()
}

func (s *subscriptions) track(off func()) {
	if off == nil {
		return
	}
	s.mu.Lock()
	s.offs = append(s.offs, off)
	s.mu.Unlock()
}

func (s *subscriptions) teardown() {
	s.mu.Lock()
	offs := s.offs
	s.offs = nil
	s.mu.Unlock()
	for _, off := range offs {
		off()
	}
}

// betaAdapted translates the beta event idiom: legacy login/logout events on
// the global user emitter become calls against the new contract.
type betaAdapted struct {
	subscriptions
	delegate BetaDelegate
	bus      Bus
	source   LegacyEventSource
}

func (a *DelegateAdapter) adaptBeta(delegate BetaDelegate) Delegate {
	return &betaAdapted{delegate: delegate, bus: a.bus, source: a.env.EventSource}
}

func (d *betaAdapted) Login(func(err error, credentials *Credentials)) {
	d.delegate.Login()
	off := d.source.Once(EventLogin, func(data any) {
		resp, ok := data.(*AuthResponse)
		if !ok {
			return
		}
		resp.ServerURL = d.delegate.ServerURL()
		user := UpdateUser(NewUser(), resp, Scope{})
		d.bus.Authenticate(map[string]any{Namespace: user})
	})
	d.track(off)
}

func (d *betaAdapted) Logout(done func(err error)) {
	d.delegate.Logout()
	off := d.source.Once(EventLogout, func(any) {
		done(nil)
		d.teardown()
	})
	d.track(off)
}

func (d *betaAdapted) ViewProfile(profile map[string]any) {
	d.delegate.ViewProfile(profile)
}

func (d *betaAdapted) EditProfile() {
	d.delegate.EditProfile()
}

func (d *betaAdapted) Destroy() {
	d.teardown()
}

// oldAdapted translates the callback-object idiom: legacy methods take a
// {success, failure} handler; token changes on the legacy user re-derive
// login/logout on the bus.
type oldAdapted struct {
	subscriptions
	delegate OldDelegate
	bus      Bus
	source   LegacyUserSource
}

var noopHandler = LegacyHandler{
	Success: func() {},
	Failure: func(error) {},
}

func (a *DelegateAdapter) adaptOld(delegate OldDelegate) Delegate {
	d := &oldAdapted{delegate: delegate, bus: a.bus, source: a.env.UserSource}

	d.track(d.source.OnTokenChange(d.handleTokenChange))

	if !d.source.ReadyFired() {
		d.source.FireReady()
	}
	if d.source.UserID() != "" && a.bus.Get(Namespace) == nil {
		d.handleTokenChange(d.source.Token())
	}

	// Probe for an existing cookie session exactly once, at adaptation.
	delegate.LoginByCookie()

	return d
}

func (d *oldAdapted) handleTokenChange(token string) {
	if token == "" {
		d.bus.Logout()
		return
	}
	d.bus.Authenticate(map[string]any{Namespace: &Credentials{Token: token}})
}

func (d *oldAdapted) Login(func(err error, credentials *Credentials)) {
	// Login results arrive via the token-change subscription, not the
	// handler, so the handler is inert.
	d.delegate.Login(noopHandler)
}

func (d *oldAdapted) Logout(done func(err error)) {
	d.delegate.Logout()
	done(nil)
	d.teardown()
}

func (d *oldAdapted) ViewProfile(profile map[string]any) {
	d.delegate.ViewProfile(noopHandler, profile)
}

func (d *oldAdapted) EditProfile() {
	d.delegate.EditProfile(noopHandler)
}

func (d *oldAdapted) Destroy() {
	d.teardown()
}
