package auth

import "sync"

// Event names emitted by User.
const (
	EventChange = "change"
	EventLogin  = "login"
	EventLogout = "logout"
)

// ChangeEvent returns the per-attribute change event name, e.g.
// ChangeEvent("token") == "change:token".
func ChangeEvent(key string) string {
	return EventChange + ":" + key
}

// ModStatus is the three-state answer to a moderator-scope query.
// ModUnknown means the query named no recognized scope key; it is distinct
// from "checked and is not a mod".
type ModStatus int8

const (
	ModUnknown ModStatus = iota
	ModNo
	ModYes
)

func (s ModStatus) String() string {
	switch s {
	case ModYes:
		return "yes"
	case ModNo:
		return "no"
	default:
		return "unknown"
	}
}

// Scope selects authorizations for a moderator query. Zero fields are
// ignored; a zero Scope is not a recognized query.
type Scope struct {
	CollectionID string
	Network      string
	SiteID       string
	ArticleID    string
}

// Attr is an ordered attribute assignment. SetAttrs preserves the order
// attrs are passed in, which fixes the order of per-attribute change events.
type Attr struct {
	Key   string
	Value any
}

// User is the long-lived observable identity for the process. It is created
// empty, populated by UpdateUser from auth responses, cleared on logout, and
// never destroyed.
//
// Change notification: every attribute assignment emits "change:{key}"
// synchronously, followed by one aggregate "change" event carrying the full
// delta map, in the same pass.
type User struct {
	Emitter

	mu             sync.Mutex
	attributes     map[string]any
	keys           []string
	authorizations []Authorization
	modMap         map[string]string
}

// NewUser returns an empty, unauthenticated user.
func NewUser() *User {
	return &User{
		attributes: make(map[string]any),
		modMap:     make(map[string]string),
	}
}

// Set assigns a single attribute.
func (u *User) Set(key string, value any) {
	u.SetAttrs(Attr{Key: key, Value: value})
}

// SetAttrs assigns attributes in order, emitting "change:{key}" for each and
// then one "change" event with the delta.
func (u *User) SetAttrs(attrs ...Attr) {
	if len(attrs) == 0 {
		return
	}
	delta := make(map[string]any, len(attrs))
	u.mu.Lock()
	for _, attr := range attrs {
		u.attributes[attr.Key] = attr.Value
		delta[attr.Key] = attr.Value
	}
	u.mu.Unlock()

	for _, attr := range attrs {
		u.Emit(ChangeEvent(attr.Key), attr.Value)
	}
	u.Emit(EventChange, delta)
}

// Get returns an attribute value, or nil when unset.
func (u *User) Get(key string) any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attributes[key]
}

// GetString returns a string attribute, or "" when unset or not a string.
func (u *User) GetString(key string) string {
	s, _ := u.Get(key).(string)
	return s
}

// Attributes returns a copy of the full attribute map.
func (u *User) Attributes() map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]any, len(u.attributes))
	for k, v := range u.attributes {
		out[k] = v
	}
	return out
}

// Unset removes an attribute if present and emits "change:{key}" with nil.
func (u *User) Unset(key string) {
	u.mu.Lock()
	_, present := u.attributes[key]
	if present {
		delete(u.attributes, key)
	}
	u.mu.Unlock()
	if present {
		u.Emit(ChangeEvent(key), nil)
	}
}

// IsAuthenticated reports whether the user has an id. The id, not the token,
// is the source of truth.
func (u *User) IsAuthenticated() bool {
	return u.GetString("id") != ""
}

// Keys returns a copy of the accumulated decryption keys. The list is
// append-only and may contain repeats; historical keys stay around so
// previously fetched content encrypted under rotated keys stays readable.
func (u *User) Keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.keys))
	copy(out, u.keys)
	return out
}

// AddKeys appends keys without de-duplication.
func (u *User) AddKeys(keys ...string) {
	if len(keys) == 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, keys...)
}

// Authorizations returns a copy of the authorization set.
func (u *User) Authorizations() []Authorization {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Authorization, len(u.authorizations))
	copy(out, u.authorizations)
	return out
}

// AddAuthorizations appends grants. Callers are expected to de-duplicate
// first; see UpdateUser.
func (u *User) AddAuthorizations(auths ...Authorization) {
	if len(auths) == 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.authorizations = append(u.authorizations, auths...)
}

// AuthorizationByCollectionID returns the first collection authorization for
// id, or nil.
func (u *User) AuthorizationByCollectionID(id string) *CollectionAuthorization {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, a := range u.authorizations {
		if ca, ok := a.(*CollectionAuthorization); ok && ca.Collection.ID == id {
			return ca
		}
	}
	return nil
}

// ModMap returns a copy of the collectionId -> moderatorKey map persisted
// with the session.
func (u *User) ModMap() map[string]string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]string, len(u.modMap))
	for k, v := range u.modMap {
		out[k] = v
	}
	return out
}

// SetModeratorKey records the moderator key for a collection in the mod map.
func (u *User) SetModeratorKey(collectionID, key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.modMap[collectionID] = key
}

// MergeModMap folds entries into the mod map, last write wins.
func (u *User) MergeModMap(modMap map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for k, v := range modMap {
		u.modMap[k] = v
	}
}

// IsMod resolves moderator status for a scope. Resolution order: exact
// collection id, then the (network, siteId, articleId) triple against
// collection authorizations, then network, then site. A scope with none of
// the recognized keys yields ModUnknown.
func (u *User) IsMod(scope Scope) ModStatus {
	u.mu.Lock()
	defer u.mu.Unlock()

	recognized := false

	if scope.CollectionID != "" {
		recognized = true
		if u.modMap[scope.CollectionID] != "" {
			return ModYes
		}
		for _, a := range u.authorizations {
			ca, ok := a.(*CollectionAuthorization)
			if ok && ca.Collection.ID == scope.CollectionID && ca.ModeratorKey != "" {
				return ModYes
			}
		}
	}

	if scope.Network != "" && scope.SiteID != "" && scope.ArticleID != "" {
		recognized = true
		for _, a := range u.authorizations {
			ca, ok := a.(*CollectionAuthorization)
			if ok && ca.Collection.Network == scope.Network &&
				ca.Collection.SiteID == scope.SiteID &&
				ca.Collection.ArticleID == scope.ArticleID &&
				ca.ModeratorKey != "" {
				return ModYes
			}
		}
	}

	if scope.Network != "" {
		recognized = true
		for _, a := range u.authorizations {
			if na, ok := a.(*NetworkAuthorization); ok && na.Network == scope.Network && na.Moderator {
				return ModYes
			}
		}
	}

	if scope.SiteID != "" {
		recognized = true
		for _, a := range u.authorizations {
			if sa, ok := a.(*SiteAuthorization); ok && sa.SiteID == scope.SiteID && sa.Moderator {
				return ModYes
			}
		}
	}

	if !recognized {
		return ModUnknown
	}
	return ModNo
}

// Clear resets the user to its unauthenticated defaults and emits a logout
// event. The instance stays alive as the process identity.
func (u *User) Clear() {
	u.mu.Lock()
	u.attributes = make(map[string]any)
	u.keys = nil
	u.authorizations = nil
	u.modMap = make(map[string]string)
	u.mu.Unlock()
	u.Emit(EventLogout, nil)
}
