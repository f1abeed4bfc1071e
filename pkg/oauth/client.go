package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boiler360/storefront-backend/pkg/config"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1 << 20

var errClientIDRequired = errors.New("oauth client id is required")

// Provider is the surface the identity service consumes.
type Provider interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Profile is the subset of the provider account used to key local accounts.
type Profile struct {
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Client talks to a GitHub-shaped OAuth identity provider.
type Client struct {
	httpClient   *http.Client
	exchangeURL  string
	profileURL   string
	clientID     string
	clientSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the provider client from configuration.
func NewClient(cfg config.OAuthConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errClientIDRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		exchangeURL:  strings.TrimSpace(cfg.ExchangeURL),
		profileURL:   strings.TrimSpace(cfg.ProfileURL),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type exchangeRequest struct {
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type exchangeResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode swaps the callback code for an access credential. A
// provider-reported error surfaces as unauthorized; transport failures as a
// dependency error.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "oauth code is required")
	}

	body, err := json.Marshal(exchangeRequest{
		Code:         code,
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode exchange request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.exchangeURL, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build exchange request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identity provider unreachable")
	}
	defer drainAndClose(resp.Body)

	var payload exchangeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode exchange response")
	}
	if payload.Error != "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "bad credentials").
			WithDetails(map[string]any{"provider_error": payload.Error})
	}
	if payload.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "identity provider returned no access token")
	}
	return payload.AccessToken, nil
}

// FetchProfile resolves the login handle behind the access credential.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identity provider unreachable")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bad credentials").
			WithDetails(map[string]any{"provider_status": resp.StatusCode})
	}

	var profile Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode profile response")
	}
	if strings.TrimSpace(profile.Login) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity provider returned no login")
	}
	return &profile, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, responseBodyReadLimit))
	_ = body.Close()
}

var _ Provider = (*Client)(nil)
