package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	popupName     = "authWindow"
	popupFeatures = "width=530;height=365;location=true;menubar=false;resizable=false;scrollbars=false"
)

// PopupWindow is an opened login window being polled for completion.
type PopupWindow interface {
	Closed() bool
}

// WindowOpener opens browser-style windows. Hosts supply the real thing;
// tests supply fakes.
type WindowOpener interface {
	Open(url, name, features string) (PopupWindow, error)
}

// LivefyreDelegate is the current-generation reference delegate: it logs in
// through a hosted popup and restores the resulting session from storage.
type LivefyreDelegate struct {
	serverURL string
	opener    WindowOpener
	users     *UserService
	sessions  *SessionStore
	requester Requester
	interval  time.Duration
	logger    Logger

	mu     sync.Mutex
	closed chan struct{}
}

// NewLivefyreDelegate builds a delegate against serverURL. The opener is the
// only host capability it needs beyond the network.
func NewLivefyreDelegate(serverURL string, opener WindowOpener, sessions *SessionStore) *LivefyreDelegate {
	client := NewClient()
	return &LivefyreDelegate{
		serverURL: serverURL,
		opener:    opener,
		users:     NewUserService(client),
		sessions:  sessions,
		requester: client.requester,
		interval:  100 * time.Millisecond,
		logger:    defLogger{},
		closed:    make(chan struct{}),
	}
}

func (d *LivefyreDelegate) WithLogger(logger Logger) *LivefyreDelegate {
	d.logger = logger
	return d
}

func (d *LivefyreDelegate) WithUserService(users *UserService) *LivefyreDelegate {
	d.users = users
	return d
}

func (d *LivefyreDelegate) WithRequester(requester Requester) *LivefyreDelegate {
	d.requester = requester
	return d
}

// WithPollInterval sets how often the popup is checked for completion.
func (d *LivefyreDelegate) WithPollInterval(interval time.Duration) *LivefyreDelegate {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Login opens the login popup and, once it closes, restores the resulting
// session and reports it through authenticate.
func (d *LivefyreDelegate) Login(authenticate func(err error, credentials *Credentials)) {
	popup, err := d.opener.Open(d.serverURL+"/auth/popup/login/", popupName, popupFeatures)
	if err != nil {
		authenticate(err, nil)
		return
	}

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.closed:
				return
			case <-ticker.C:
				select {
				case <-d.closed:
					return
				default:
				}
				if popup != nil && !popup.Closed() {
					continue
				}
				d.RestoreSession(authenticate)
				return
			}
		}
	}()
}

// RestoreSession reports the session left behind by the popup: the cached
// token when one exists, otherwise an anonymous profile fetch that is then
// persisted.
func (d *LivefyreDelegate) RestoreSession(callback func(err error, credentials *Credentials)) {
	ctx := context.Background()
	if token, ok := d.sessions.CachedToken(ctx); ok {
		callback(nil, &Credentials{Token: token, ServerURL: d.serverURL})
		return
	}

	d.sessions.Clear(ctx)
	user, resp, err := d.users.Fetch(ctx, AuthRequest{ServerURL: d.serverURL})
	if err != nil {
		callback(err, nil)
		return
	}
	if err := d.sessions.Save(ctx, resp, user); err != nil {
		d.logger.Warn("failed to persist restored session: %v", err)
	}
	callback(nil, &Credentials{User: user, ServerURL: d.serverURL})
}

// Logout ends the hosted session.
func (d *LivefyreDelegate) Logout(done func(err error)) {
	url := d.serverURL + "/auth/logout/ajax/?nocache=" + uuid.NewString()
	_, err := d.requester.Get(context.Background(), url)
	done(err)
}

func (d *LivefyreDelegate) ViewProfile(profile map[string]any) {
	profileURL, _ := profile["profileUrl"].(string)
	if profileURL == "" {
		return
	}
	if _, err := d.opener.Open(profileURL, "_blank", ""); err != nil {
		d.logger.Warn("failed to open profile window: %v", err)
	}
}

func (d *LivefyreDelegate) EditProfile() {
	if _, err := d.opener.Open(d.serverURL+"/profile/edit/info/", "_blank", ""); err != nil {
		d.logger.Warn("failed to open profile editor: %v", err)
	}
}

// Destroy stops any in-flight popup polling.
func (d *LivefyreDelegate) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.closed:
	default:
		close(d.closed)
	}
}
