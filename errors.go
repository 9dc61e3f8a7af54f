package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMalformedCredential = "AUTH_MALFORMED_CREDENTIAL"
	textCodeRemoteAuth          = "AUTH_REMOTE_ERROR"
	textCodeTransport           = "AUTH_TRANSPORT_ERROR"
	textCodeMissingProfile      = "AUTH_MISSING_PROFILE"
	textCodeInvalidScope        = "AUTH_INVALID_COLLECTION_SCOPE"
)

// ErrMalformedCredential is returned when an lftoken does not have the
// expected three dot-separated segments or its payload cannot be decoded.
var ErrMalformedCredential = goerrors.New("credential is not a valid lftoken", goerrors.CategoryBadInput).
	WithTextCode(textCodeMalformedCredential).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingProfile is returned when the auth endpoint answered successfully
// but the response carries no profile. Treated as a fetch failure.
var ErrMissingProfile = goerrors.New("auth response carries no profile", goerrors.CategoryAuth).
	WithTextCode(textCodeMissingProfile).
	WithCode(goerrors.CodeUnauthorized)

// newRemoteAuthError wraps a non-200 envelope code. The transport itself
// always answers HTTP 200; the envelope code is the real status.
func newRemoteAuthError(code int, body []byte) error {
	return goerrors.New("auth api returned an error envelope", goerrors.CategoryAuth).
		WithTextCode(textCodeRemoteAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithMetadata(map[string]any{
			"code":     code,
			"response": string(body),
		})
}

func newTransportError(err error, url string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "auth api request failed").
		WithTextCode(textCodeTransport).
		WithMetadata(map[string]any{"url": url})
}

func newInvalidScopeError(err error, scope Collection) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "missing collection scope option").
		WithTextCode(textCodeInvalidScope).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			"network":   scope.Network,
			"siteId":    scope.SiteID,
			"articleId": scope.ArticleID,
		})
}

// IsRemoteAuthError reports whether err carries a non-200 auth envelope.
func IsRemoteAuthError(err error) bool {
	var rich *goerrors.Error
	return errors.As(err, &rich) && rich.TextCode == textCodeRemoteAuth
}

// IsMalformedCredentialError reports whether err stems from a bad lftoken.
func IsMalformedCredentialError(err error) bool {
	var rich *goerrors.Error
	return errors.As(err, &rich) && rich.TextCode == textCodeMalformedCredential
}

// IsInvalidScopeError reports whether err stems from an incomplete
// collection scope.
func IsInvalidScopeError(err error) bool {
	var rich *goerrors.Error
	return errors.As(err, &rich) && rich.TextCode == textCodeInvalidScope
}

// ResponseCode extracts the envelope code from a remote auth error, or 0.
func ResponseCode(err error) int {
	var rich *goerrors.Error
	if !errors.As(err, &rich) || rich.Metadata == nil {
		return 0
	}
	if code, ok := rich.Metadata["code"].(int); ok {
		return code
	}
	return 0
}
