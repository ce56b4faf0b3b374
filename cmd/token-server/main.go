// Command token-server serves the token-issuing route the avatar demo calls
// before every session start. It keeps the HeyGen API key on the server.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/tokens"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultAddr     = ":3001"
	shutdownTimeout = 5 * time.Second
)

type serverConfig struct {
	Addr        string
	APIKey      string
	UpstreamURL string
}

func parseServerConfig(args []string, getenv func(string) string) (serverConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	addr := strings.TrimSpace(getenv("AVATAR_TOKEN_ADDR"))
	if addr == "" {
		addr = defaultAddr
	}

	cfg := serverConfig{}
	fs := flag.NewFlagSet("token-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Addr, "addr", addr, "listen address (or AVATAR_TOKEN_ADDR)")
	fs.StringVar(&cfg.UpstreamURL, "upstream", strings.TrimSpace(getenv("HEYGEN_BASE_API_URL")), "HeyGen API base URL (or HEYGEN_BASE_API_URL)")
	if err := fs.Parse(args); err != nil {
		return serverConfig{}, err
	}

	cfg.APIKey = strings.TrimSpace(getenv("HEYGEN_API_KEY"))
	if cfg.APIKey == "" {
		return serverConfig{}, errors.New("HEYGEN_API_KEY is not set")
	}
	return cfg, nil
}

func newMux(cfg serverConfig) *http.ServeMux {
	var opts []tokens.HandlerOption
	if cfg.UpstreamURL != "" {
		opts = append(opts, tokens.WithUpstreamURL(cfg.UpstreamURL))
	}

	mux := http.NewServeMux()
	mux.Handle(tokens.DefaultRoute, otelhttp.NewHandler(tokens.NewHandler(cfg.APIKey, opts...), "get access token"))
	return mux
}

func main() {
	cfg, err := parseServerConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down cleanly: %v", err)
		}
	}()

	log.Printf("Serving %s on %s", tokens.DefaultRoute, cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Token server failed: %v", err)
	}
}
