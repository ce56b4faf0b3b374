// Package tokens fetches and issues the short-lived access tokens a
// streaming session is started with.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultRoute = "/api/get-access-token"
	// maxTokenSize bounds how much of a response body is read as a token.
	maxTokenSize = 64 << 10
)

var ErrEmptyToken = errors.New("token endpoint returned an empty token")

// Client requests a fresh token from the token-issuing route for every
// call. Tokens are never cached.
type Client struct {
	url        string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

func NewClient(url string, opts ...ClientOption) *Client {
	client := &Client{
		url:        url,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch issues a POST with an empty body and returns the response body as
// the token.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "fetch access token")
	defer span.End()

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return fail(fmt.Errorf("error creating token request: %w", err))
	}
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("error requesting token: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenSize))
	if err != nil {
		return fail(fmt.Errorf("error reading token response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("token endpoint returned %s", resp.Status))
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return fail(ErrEmptyToken)
	}

	logger.DebugContext(ctx, "fetched access token", "length", len(token))
	return token, nil
}
