// Package heygen adapts the HeyGen streaming avatar API to the session
// orchestrator: REST calls drive the session lifecycle and a websocket
// carries voice chat audio and inbound session events.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	orchestration "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseURL = "https://api.heygen.com"
	// defaultEventBuffer bounds inbound events waiting for dispatch.
	defaultEventBuffer = 64
	maxErrorBody       = 4 << 10
)

var _ orchestration.Provider = (*Provider)(nil)

type Provider struct {
	baseURL     string
	httpClient  *http.Client
	dialer      *websocket.Dialer
	eventBuffer int
}

type ProviderOption func(*Provider)

func WithBaseURL(url string) ProviderOption {
	return func(p *Provider) { p.baseURL = strings.TrimRight(url, "/") }
}

func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) { p.httpClient = client }
}

func WithDialer(dialer *websocket.Dialer) ProviderOption {
	return func(p *Provider) { p.dialer = dialer }
}

// WithEventBuffer sets how many inbound events may queue before the
// realtime reader blocks.
func WithEventBuffer(size int) ProviderOption {
	return func(p *Provider) {
		if size > 0 {
			p.eventBuffer = size
		}
	}
}

// NewProvider uses HEYGEN_BASE_API_URL as base URL when set.
func NewProvider(opts ...ProviderOption) *Provider {
	baseURL := DefaultBaseURL
	if envURL, ok := os.LookupEnv("HEYGEN_BASE_API_URL"); ok && envURL != "" {
		baseURL = strings.TrimRight(envURL, "/")
	}

	p := &Provider{
		baseURL:     baseURL,
		httpClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		dialer:      websocket.DefaultDialer,
		eventBuffer: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewSession binds a session object to token. Nothing is sent to the
// service until Start.
func (p *Provider) NewSession(_ context.Context, token string) (orchestration.ProviderSession, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("access token is empty")
	}
	return newSession(p, token), nil
}

type apiError struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

type apiResponse[T any] struct {
	Code    int       `json:"code"`
	Data    T         `json:"data"`
	Message string    `json:"message"`
	Error   *apiError `json:"error,omitempty"`
}

// post sends body as JSON and decodes the data field of the response into
// out, which may be nil.
func post[T any](ctx context.Context, p *Provider, token, path string, body any, out *T) error {
	ctx, span := tracer.Start(ctx, "POST "+path)
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return fail(fmt.Errorf("error marshalling JSON: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(requestBody))
	if err != nil {
		return fail(fmt.Errorf("error creating HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		span.SetAttributes(attribute.String("response.error", string(errorBody)))
		return fail(fmt.Errorf("%s: non-OK HTTP status: %s", path, resp.Status))
	}

	var decoded apiResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		return fail(fmt.Errorf("error decoding response: %w", err))
	}
	if decoded.Error != nil {
		return fail(fmt.Errorf("%s: %s", path, decoded.Error.Message))
	}
	if out != nil {
		*out = decoded.Data
	}
	return nil
}
