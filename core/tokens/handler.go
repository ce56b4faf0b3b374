package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultUpstreamURL = "https://api.heygen.com"
	createTokenPath    = "/v1/streaming.create_token"
)

// Handler serves the token-issuing route. It exchanges the server-held API
// key for a short-lived session token and answers with the token as plain
// text, so the API key never reaches the client.
type Handler struct {
	apiKey      string
	upstreamURL string
	httpClient  *http.Client
}

type HandlerOption func(*Handler)

func WithUpstreamURL(url string) HandlerOption {
	return func(h *Handler) { h.upstreamURL = url }
}

func WithUpstreamHTTPClient(client *http.Client) HandlerOption {
	return func(h *Handler) { h.httpClient = client }
}

func NewHandler(apiKey string, opts ...HandlerOption) *Handler {
	h := &Handler{
		apiKey:      apiKey,
		upstreamURL: DefaultUpstreamURL,
		httpClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, err := h.createToken(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create access token", "error", err)
		http.Error(w, "failed to retrieve access token", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, token)
}

type createTokenResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (h *Handler) createToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "create access token")
	defer span.End()

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if h.apiKey == "" {
		return fail(fmt.Errorf("api key not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.upstreamURL+createTokenPath, bytes.NewReader(nil))
	if err != nil {
		return fail(fmt.Errorf("error creating HTTP request: %w", err))
	}
	req.Header.Set("x-api-key", h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenSize)); err == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		return fail(fmt.Errorf("non-OK HTTP status: %s", resp.Status))
	}

	var body createTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fail(fmt.Errorf("error decoding response: %w", err))
	}
	if body.Error != nil {
		return fail(fmt.Errorf("upstream error %s: %s", body.Error.Code, body.Error.Message))
	}
	if body.Data.Token == "" {
		return fail(ErrEmptyToken)
	}

	return body.Data.Token, nil
}
