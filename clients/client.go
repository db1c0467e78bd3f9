package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"raffle-bff/apperrors"
)

const maxErrorBody = 1 << 20

type tokenKey struct{}

// WithToken attaches a bearer token to ctx. Requests made with that context
// carry it in the Authorization header.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token attached to ctx, if any.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// bearerTransport is the request interceptor: it adds the context token to
// every outgoing request that does not already carry credentials.
type bearerTransport struct {
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := TokenFrom(req.Context())
	if token != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(token, "Bearer "))
	}
	return t.base.RoundTrip(req)
}

// RaffleClient talks to the raffle REST API.
type RaffleClient struct {
	baseURL string
	client  *http.Client
}

func NewRaffleClient(baseURL string, timeout time.Duration) *RaffleClient {
	return NewRaffleClientWithTransport(baseURL, timeout, http.DefaultTransport)
}

// NewRaffleClientWithTransport is NewRaffleClient over a custom transport.
func NewRaffleClientWithTransport(baseURL string, timeout time.Duration, transport http.RoundTripper) *RaffleClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &RaffleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: transport},
		},
	}
}

// do sends in as JSON (when non-nil) and decodes the response into out (when
// non-nil). Statuses >= 400 come back as *APIError; transport and decode
// failures as apperrors.ErrUpstream.
func (c *RaffleClient) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUpstream, fmt.Errorf("raffle api %s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUpstream, fmt.Errorf("read response: %w", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(apperrors.ErrUpstream, fmt.Errorf("decode %s %s response: %w", method, path, err))
	}
	return nil
}
