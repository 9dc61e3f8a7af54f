package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	auth "github.com/fyrekit/streamauth"
	"github.com/fyrekit/streamauth/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLegacyModule struct {
	mu       sync.Mutex
	ready    bool
	delegate any
	fns      []func()
}

func (m *fakeLegacyModule) Ready(fn func()) bool {
	m.mu.Lock()
	ready := m.ready
	if !ready {
		m.fns = append(m.fns, fn)
	}
	m.mu.Unlock()
	if ready {
		fn()
	}
	return ready
}

func (m *fakeLegacyModule) GetDelegate() (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delegate, m.delegate != nil
}

func (m *fakeLegacyModule) arrive(delegate any) {
	m.mu.Lock()
	m.ready = true
	m.delegate = delegate
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type metaOnlyDelegate struct {
	fakeCurrentDelegate
}

func (metaOnlyDelegate) MetaDelegate() bool { return true }

func newTestPlugin(bus *fakeBus, requester auth.Requester, opts auth.PluginOptions) (*auth.Plugin, *auth.SessionStore) {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = auth.NewSessionStore(store.NewMemory())
	}
	client := auth.NewClient().WithRequester(requester)
	opts.Client = client
	opts.Users = auth.NewUserService(client)
	opts.Sessions = sessions
	if opts.ServerURL == "" {
		opts.ServerURL = "https://admin.labs.fyre.co"
	}
	return auth.NewPlugin(bus, opts), sessions
}

func TestPluginRestoresSessionOnStart(t *testing.T) {
	bus := newFakeBus()
	plugin, sessions := newTestPlugin(bus, &recordingRequester{}, auth.PluginOptions{})
	require.NoError(t, sessions.Save(context.Background(), moderatorResponse(), nil))

	plugin.Start(context.Background())
	defer plugin.Stop()

	require.Equal(t, 1, bus.loginCount())
	user, ok := bus.lastLogin()[auth.Namespace].(*auth.User)
	require.True(t, ok)
	assert.True(t, user.IsAuthenticated())
	assert.Equal(t, "user-1", user.GetString("id"))
}

func TestPluginAuthenticatesToken(t *testing.T) {
	bus := newFakeBus()
	requester := &recordingRequester{body: []byte(successBody)}
	plugin, sessions := newTestPlugin(bus, requester, auth.PluginOptions{})

	plugin.Start(context.Background())
	defer plugin.Stop()
	require.Zero(t, bus.loginCount())

	bus.Authenticate(map[string]any{auth.Namespace: labsToken})

	require.Equal(t, 1, bus.loginCount())
	user, ok := bus.lastLogin()[auth.Namespace].(*auth.User)
	require.True(t, ok)
	assert.True(t, user.IsAuthenticated())
	assert.True(t, strings.Contains(requester.lastURL(), "lftoken="+labsToken))

	// The successful login was persisted.
	token, ok := sessions.CachedToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "tok-value", token)
}

func TestPluginAuthenticatesCredentials(t *testing.T) {
	bus := newFakeBus()
	requester := &recordingRequester{body: []byte(successBody)}
	plugin, _ := newTestPlugin(bus, requester, auth.PluginOptions{})

	plugin.Start(context.Background())
	defer plugin.Stop()

	bus.Authenticate(map[string]any{auth.Namespace: &auth.Credentials{Token: labsToken}})
	assert.Equal(t, 1, bus.loginCount())

	// A credentials payload carrying a user skips the fetch.
	urls := len(requester.urls)
	prebuilt := auth.NewUser()
	prebuilt.Set("id", "prebuilt")
	bus.Authenticate(map[string]any{auth.Namespace: &auth.Credentials{User: prebuilt}})
	assert.Equal(t, 2, bus.loginCount())
	assert.Len(t, requester.urls, urls)
}

func TestPluginFailedAuthLeavesModelUntouched(t *testing.T) {
	bus := newFakeBus()
	requester := &recordingRequester{body: []byte(`{"code": 403, "data": {}}`)}
	plugin, sessions := newTestPlugin(bus, requester, auth.PluginOptions{})

	plugin.Start(context.Background())
	defer plugin.Stop()

	bus.Authenticate(map[string]any{auth.Namespace: labsToken})

	assert.Zero(t, bus.loginCount())
	_, ok := sessions.CachedToken(context.Background())
	assert.False(t, ok)
}

func TestPluginLogoutClearsSession(t *testing.T) {
	bus := newFakeBus()
	plugin, sessions := newTestPlugin(bus, &recordingRequester{}, auth.PluginOptions{})
	require.NoError(t, sessions.Save(context.Background(), moderatorResponse(), nil))

	plugin.Start(context.Background())
	defer plugin.Stop()

	bus.Logout()

	_, ok := sessions.CachedToken(context.Background())
	assert.False(t, ok)
}

func TestPluginStopUnsubscribes(t *testing.T) {
	bus := newFakeBus()
	requester := &recordingRequester{body: []byte(successBody)}
	plugin, _ := newTestPlugin(bus, requester, auth.PluginOptions{})

	plugin.Start(context.Background())
	plugin.Stop()

	bus.Authenticate(map[string]any{auth.Namespace: labsToken})
	assert.Zero(t, bus.loginCount())
}

func TestPluginConsumesLegacyModule(t *testing.T) {
	bus := newFakeBus()
	legacy := &fakeLegacyModule{}
	plugin, _ := newTestPlugin(bus, &recordingRequester{}, auth.PluginOptions{
		LegacyModule: legacy,
		PollAttempts: 10,
		PollStep:     time.Millisecond,
	})

	plugin.Start(context.Background())
	defer plugin.Stop()

	legacy.arrive(&fakeCurrentDelegate{})

	require.Eventually(t, bus.HasDelegate, time.Second, time.Millisecond)
}

// lockedLegacyModule invokes Ready callbacks while still holding its own
// lock, as page-level modules are free to do.
type lockedLegacyModule struct {
	mu       sync.Mutex
	delegate any
}

func (m *lockedLegacyModule) Ready(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	return true
}

func (m *lockedLegacyModule) GetDelegate() (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delegate, m.delegate != nil
}

func TestPluginConsumesLockHoldingLegacyModule(t *testing.T) {
	bus := newFakeBus()
	legacy := &lockedLegacyModule{delegate: &fakeCurrentDelegate{}}
	plugin, _ := newTestPlugin(bus, &recordingRequester{}, auth.PluginOptions{
		LegacyModule: legacy,
		PollAttempts: 5,
		PollStep:     time.Millisecond,
	})

	plugin.Start(context.Background())
	defer plugin.Stop()

	require.Eventually(t, bus.HasDelegate, time.Second, time.Millisecond)
}

func TestPluginSkipsMetaDelegate(t *testing.T) {
	bus := newFakeBus()
	legacy := &fakeLegacyModule{}
	legacy.arrive(&metaOnlyDelegate{})
	plugin, _ := newTestPlugin(bus, &recordingRequester{}, auth.PluginOptions{
		LegacyModule: legacy,
		PollAttempts: 3,
		PollStep:     time.Millisecond,
	})

	plugin.Start(context.Background())
	defer plugin.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, bus.HasDelegate())
}

func TestPluginDelegateRegistersOnBus(t *testing.T) {
	bus := newFakeBus()
	plugin, _ := newTestPlugin(bus, &recordingRequester{}, auth.PluginOptions{})

	plugin.Delegate(&fakeCurrentDelegate{})
	assert.True(t, bus.HasDelegate())

	// A shape that fits no generation is dropped.
	plugin.Delegate(struct{}{})
	bus.mu.Lock()
	n := len(bus.delegates)
	bus.mu.Unlock()
	assert.Equal(t, 1, n)
}
