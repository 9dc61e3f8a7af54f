package auth

import (
	"sort"
	"time"

	"dario.cat/mergo"
)

// UpdateUser merges an auth response into user and returns it. Scalar profile
// attributes, token, and serverUrl overwrite existing values last-write-wins;
// nested profile objects merge key by key; keys and the mod map only ever
// accumulate. scope supplies the collection context the response was
// requested for.
//
// All attribute mutations and their per-attribute change events happen in one
// synchronous pass before the aggregate change event fires.
func UpdateUser(user *User, resp *AuthResponse, scope Scope) *User {
	// Profile attributes merge over the user's current ones: scalars
	// overwrite, nested objects merge key by key so fields absent from
	// the response survive.
	merged := user.Attributes()
	if err := mergo.Merge(&merged, resp.Profile, mergo.WithOverride); err != nil {
		for k, v := range resp.Profile {
			merged[k] = v
		}
	}

	var token string
	var tokenExpiresAt time.Time
	if resp.Token != nil {
		token = resp.Token.Value
		tokenExpiresAt = time.Now().Add(time.Duration(resp.Token.TTL) * time.Second)
	}

	// Profile fields first in a stable order, then the session fields.
	// Only keys named by the response are assigned; merged values carry
	// whatever nested state they absorbed.
	profileKeys := make([]string, 0, len(resp.Profile))
	for k := range resp.Profile {
		profileKeys = append(profileKeys, k)
	}
	sort.Strings(profileKeys)

	ordered := make([]Attr, 0, len(profileKeys)+3)
	for _, k := range profileKeys {
		ordered = append(ordered, Attr{Key: k, Value: merged[k]})
	}
	ordered = append(ordered,
		Attr{Key: "serverUrl", Value: resp.ServerURL},
		Attr{Key: "token", Value: token},
		Attr{Key: "tokenExpiresAt", Value: tokenExpiresAt},
	)

	var granted []Authorization
	var ca *CollectionAuthorization
	if resp.CollectionID != "" {
		ca = newCollectionAuthorization(scope, resp)
		granted = append(granted, ca)
	}
	granted = append(granted, networkAuthorizations(resp)...)
	granted = append(granted, siteAuthorizations(resp)...)

	// Best-effort de-duplication: a grant is skipped when the user is
	// already a moderator for that scope. Status-based, not scope-identity
	// based, so a re-auth for the same scope with a changed moderatorKey
	// does not update the stored grant. The filter runs against the state
	// from before this response; keys and the mod map are recorded after,
	// so a fresh grant is never discarded by its own entry.
	unique := granted[:0:0]
	for _, a := range granted {
		switch g := a.(type) {
		case *NetworkAuthorization:
			if user.IsMod(Scope{Network: g.Network}) != ModYes {
				unique = append(unique, a)
			}
		case *SiteAuthorization:
			if user.IsMod(Scope{SiteID: g.SiteID}) != ModYes {
				unique = append(unique, a)
			}
		case *CollectionAuthorization:
			if g.Collection.ID != "" && user.IsMod(Scope{CollectionID: g.Collection.ID}) != ModYes {
				unique = append(unique, a)
			}
		}
	}

	if ca != nil {
		user.AddKeys(ca.Keys()...)
		if ca.ModeratorKey != "" {
			user.SetModeratorKey(ca.Collection.ID, ca.ModeratorKey)
		}
	}

	user.SetAttrs(ordered...)
	user.AddAuthorizations(unique...)
	return user
}

func newCollectionAuthorization(scope Scope, resp *AuthResponse) *CollectionAuthorization {
	ca := &CollectionAuthorization{
		Collection: Collection{
			Network:   scope.Network,
			SiteID:    scope.SiteID,
			ArticleID: scope.ArticleID,
			ID:        resp.CollectionID,
		},
	}
	if perms := resp.Permissions; perms != nil {
		ca.Authors = append(ca.Authors, perms.Authors...)
		ca.ModeratorKey = perms.ModeratorKey
	}
	return ca
}

func networkAuthorizations(resp *AuthResponse) []Authorization {
	if resp.ModScopes == nil || len(resp.ModScopes.Networks) == 0 {
		return nil
	}
	out := make([]Authorization, 0, len(resp.ModScopes.Networks))
	for _, network := range resp.ModScopes.Networks {
		out = append(out, &NetworkAuthorization{Network: network, Moderator: true})
	}
	return out
}

func siteAuthorizations(resp *AuthResponse) []Authorization {
	if resp.ModScopes == nil || len(resp.ModScopes.Sites) == 0 {
		return nil
	}
	out := make([]Authorization, 0, len(resp.ModScopes.Sites))
	for _, siteID := range resp.ModScopes.Sites {
		out = append(out, &SiteAuthorization{SiteID: siteID, Moderator: true})
	}
	return out
}
