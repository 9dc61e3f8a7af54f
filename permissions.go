package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
)

// PermissionsForCollection fetches the caller's permissions for one
// collection. The scope must name network, siteId, and articleId; an
// incomplete scope fails fast, before any network call.
func (c *Client) PermissionsForCollection(ctx context.Context, token string, scope Collection) (*AuthResponse, error) {
	if err := validateCollectionScope(scope); err != nil {
		return nil, newInvalidScopeError(err, scope)
	}
	return c.Authenticate(ctx, AuthRequest{
		Token:     token,
		Network:   scope.Network,
		SiteID:    scope.SiteID,
		ArticleID: scope.ArticleID,
	})
}

func validateCollectionScope(scope Collection) error {
	return validation.ValidateStruct(&scope,
		validation.Field(&scope.Network, validation.Required),
		validation.Field(&scope.SiteID, validation.Required),
		validation.Field(&scope.ArticleID, validation.Required),
	)
}
