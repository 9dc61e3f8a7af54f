package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultServerURL is used when no server, network, or decodable token is
// available to derive an origin from.
const DefaultServerURL = "https://livefyre.com"

const (
	authPath       = "/api/v3.0/auth/"
	defaultScheme  = "https"
	defaultTimeout = 15 * time.Second
)

// Requester issues the cross-origin auth request. The default implementation
// rides resty; tests substitute fakes.
type Requester interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context, url string) ([]byte, error)

// Get satisfies the Requester interface.
func (f RequesterFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

type restyRequester struct {
	client *resty.Client
}

func (r *restyRequester) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// AuthRequest describes one call against the auth endpoint. Token is
// optional when delegating to an anonymous profile fetch. The origin is
// resolved from ServerURL, then Network, then the token payload.
type AuthRequest struct {
	Token     string
	ServerURL string
	Network   string
	BPChannel string
	ArticleID string
	SiteID    string
}

// Scope returns the collection scope implied by the request.
func (r AuthRequest) Scope() Scope {
	return Scope{
		Network:   r.Network,
		SiteID:    r.SiteID,
		ArticleID: r.ArticleID,
	}
}

// Client talks to the auth endpoint. Authenticate is a pure function of its
// inputs aside from the network call.
type Client struct {
	requester Requester
	scheme    string
	logger    Logger
}

// NewClient returns a Client with a resty-backed requester.
func NewClient() *Client {
	return &Client{
		requester: &restyRequester{client: resty.New().SetTimeout(defaultTimeout)},
		scheme:    defaultScheme,
		logger:    defLogger{},
	}
}

func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// WithRequester swaps the transport. Useful for mocks and for hosts that
// already carry an authenticated HTTP stack.
func (c *Client) WithRequester(requester Requester) *Client {
	c.requester = requester
	return c
}

// WithScheme sets the scheme used for origins derived from a network name.
func (c *Client) WithScheme(scheme string) *Client {
	c.scheme = strings.TrimSuffix(scheme, "://")
	return c
}

// WithTimeout replaces the default resty transport with one using timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.requester = &restyRequester{client: resty.New().SetTimeout(timeout)}
	return c
}

// Authenticate fetches profile and authorization data for req. The HTTP
// layer always answers 200; success or failure lives in the envelope code.
func (c *Client) Authenticate(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	serverURL, err := c.resolveServerURL(req)
	if err != nil {
		return nil, err
	}

	// Query order is part of the wire contract:
	// lftoken, bp_channel, articleId, siteId.
	var parts []string
	if req.Token != "" {
		parts = append(parts, qsParam("lftoken", req.Token))
	}
	if req.BPChannel != "" {
		parts = append(parts, qsParam("bp_channel", req.BPChannel))
	}
	if req.ArticleID != "" && req.SiteID != "" {
		parts = append(parts,
			qsParam("articleId", base64.StdEncoding.EncodeToString([]byte(req.ArticleID))),
			qsParam("siteId", req.SiteID))
	}

	endpoint := serverURL + authPath + "?" + strings.Join(parts, "&")

	body, err := c.requester.Get(ctx, endpoint)
	if err != nil {
		c.logger.Debug("auth request failed url=%s err=%v", endpoint, err)
		return nil, newTransportError(err, endpoint)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "auth api returned an undecodable envelope").
			WithTextCode(textCodeTransport)
	}
	if env.Code != 200 {
		return nil, newRemoteAuthError(env.Code, body)
	}

	resp := env.Data
	if resp == nil {
		resp = &AuthResponse{}
	}
	resp.ServerURL = serverURL
	return resp, nil
}

func (c *Client) resolveServerURL(req AuthRequest) (string, error) {
	if req.ServerURL != "" {
		return strings.TrimRight(req.ServerURL, "/"), nil
	}
	if req.Network != "" {
		return c.serverURLForNetwork(req.Network), nil
	}
	if req.Token != "" {
		network, err := NetworkFromToken(req.Token)
		if err != nil {
			return "", err
		}
		return c.serverURLForNetwork(network), nil
	}
	return DefaultServerURL, nil
}

func (c *Client) serverURLForNetwork(network string) string {
	return c.scheme + "://admin." + network
}

// NetworkFromToken derives the issuing network from an lftoken by decoding
// the payload segment as base64 JSON and reading its domain field. The
// signature is never verified; the token is consumed, not validated.
func NetworkFromToken(token string) (string, error) {
	if strings.Count(token, ".") != 2 {
		return "", goerrors.New("credential is not a valid lftoken", goerrors.CategoryBadInput).
			WithTextCode(textCodeMalformedCredential).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"token": token})
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "credential payload is not decodable").
			WithTextCode(textCodeMalformedCredential)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrMalformedCredential
	}
	domain, _ := claims["domain"].(string)
	if domain == "" {
		return "", goerrors.New("credential payload has no domain claim", goerrors.CategoryBadInput).
			WithTextCode(textCodeMalformedCredential).
			WithCode(goerrors.CodeBadRequest)
	}
	return domain, nil
}

func qsParam(key, value string) string {
	return key + "=" + url.QueryEscape(value)
}
