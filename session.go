package auth

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Storage keys. SessionKey holds the last auth response plus the derived mod
// map; CredentialsKey holds just the raw token string.
const (
	SessionKey     = "fyre-auth"
	CredentialsKey = "fyre-authentication-creds"
)

// SessionRecord is the serialized session payload: the raw auth response as
// received, plus the collectionId -> moderatorKey map derived from it.
type SessionRecord struct {
	AuthResponse
	ModMap map[string]string `json:"mod_map,omitempty"`
}

// SessionStore persists the authenticated user between page loads. Both keys
// expire with the token TTL.
type SessionStore struct {
	storage Storage
	logger  Logger
	now     func() time.Time
}

// NewSessionStore wraps storage. Backends live in the store subpackage.
func NewSessionStore(storage Storage) *SessionStore {
	return &SessionStore{
		storage: storage,
		logger:  defLogger{},
		now:     time.Now,
	}
}

func (s *SessionStore) WithLogger(logger Logger) *SessionStore {
	s.logger = logger
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *SessionStore) WithClock(clock func() time.Time) *SessionStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Get rebuilds a user from the stored session, or returns nil when no valid
// session exists. A corrupt record is treated as no session; the error is
// returned for callers that want to log it.
func (s *SessionStore) Get(ctx context.Context) (*User, error) {
	raw, ok, err := s.storage.Get(ctx, SessionKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "session storage read failed")
	}
	if !ok {
		return nil, nil
	}

	var record SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "stored session is not decodable")
	}
	if record.Token == nil || record.Token.Value == "" {
		return nil, nil
	}

	user := NewUser()
	UpdateUser(user, &record.AuthResponse, Scope{})
	user.MergeModMap(record.ModMap)
	return user, nil
}

// CachedToken returns the token value from the stored session, if any.
func (s *SessionStore) CachedToken(ctx context.Context) (string, bool) {
	raw, ok, err := s.storage.Get(ctx, SessionKey)
	if err != nil || !ok {
		return "", false
	}
	var record SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return "", false
	}
	if record.Token == nil || record.Token.Value == "" {
		return "", false
	}
	return record.Token.Value, true
}

// Save persists the raw auth response and, when a user is supplied, its
// derived mod map. The save always follows the in-memory update that
// produced it.
func (s *SessionStore) Save(ctx context.Context, resp *AuthResponse, user *User) error {
	if resp == nil || resp.Token == nil {
		return goerrors.New("auth response has no token to persist", goerrors.CategoryBadInput)
	}

	record := SessionRecord{AuthResponse: *resp}
	if user != nil {
		record.ModMap = user.ModMap()
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "session encode failed")
	}

	expiresAt := s.now().Add(time.Duration(resp.Token.TTL) * time.Second)
	if err := s.storage.Set(ctx, SessionKey, raw, expiresAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "session storage write failed")
	}
	if resp.Token.Value != "" {
		if err := s.storage.Set(ctx, CredentialsKey, []byte(resp.Token.Value), expiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "credentials storage write failed")
		}
	}
	return nil
}

// Clear removes both session keys. Storage errors are logged, not surfaced:
// a failed clear must not block logout.
func (s *SessionStore) Clear(ctx context.Context) {
	if err := s.storage.Remove(ctx, SessionKey); err != nil {
		s.logger.Warn("failed to clear session key: %v", err)
	}
	if err := s.storage.Remove(ctx, CredentialsKey); err != nil {
		s.logger.Warn("failed to clear credentials key: %v", err)
	}
}
