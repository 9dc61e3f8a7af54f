package auth

// Wire shapes for the auth endpoint. The endpoint is a versioned external
// contract: field names follow the wire, not Go convention.

// TokenDescriptor is the issued bearer credential plus its lifetime.
type TokenDescriptor struct {
	Value string `json:"value"`
	// TTL is the remaining lifetime in seconds.
	TTL int64 `json:"ttl"`
}

// ResponsePermissions carries collection-scoped grants.
type ResponsePermissions struct {
	ModeratorKey string   `json:"moderator_key"`
	Authors      []Author `json:"authors"`
}

// ResponseModScopes lists the networks and sites the user moderates.
type ResponseModScopes struct {
	Networks []string `json:"networks"`
	Sites    []string `json:"sites"`
}

// AuthResponse is the data portion of a successful auth envelope.
type AuthResponse struct {
	Profile      map[string]any       `json:"profile"`
	Token        *TokenDescriptor     `json:"token"`
	CollectionID string               `json:"collection_id"`
	Permissions  *ResponsePermissions `json:"permissions"`
	ModScopes    *ResponseModScopes   `json:"modScopes"`

	// ServerURL is the origin that answered; filled in by Client after
	// resolution, never sent on the wire.
	ServerURL string `json:"serverUrl,omitempty"`
}

// envelope is the always-200 response wrapper. Code carries the real status.
type envelope struct {
	Code int           `json:"code"`
	Data *AuthResponse `json:"data"`
}
