// Package gateway wires the validating middleware in front of a reverse
// proxy, producing the HTTP server the oasgate binary runs.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/oasgate/oasgate/pkg/config"
	"github.com/oasgate/oasgate/pkg/logging"
	"github.com/oasgate/oasgate/pkg/validation"
)

// Options configures a Gateway.
type Options struct {
	// Config is the gateway configuration. Required.
	Config *config.Config

	// Registries supplies custom format validators and body deserializers.
	// Optional.
	Registries *validation.Registries

	// Logger receives gateway and validation logs. Defaults to logging.Nop.
	Logger *slog.Logger
}

// Gateway is a validating reverse proxy: requests are checked against an
// OpenAPI document before they reach the upstream, and upstream responses
// are checked before they reach the client.
type Gateway struct {
	cfg     *config.Config
	handler http.Handler
	logger  *slog.Logger
}

// New builds a Gateway from options. The OpenAPI document named by the
// configuration is loaded and validated here, so a broken document fails at
// startup rather than on the first request.
func New(opts Options) (*Gateway, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	doc, err := validation.LoadSpecFile(opts.Config.Spec)
	if err != nil {
		return nil, err
	}
	validator, err := validation.New(doc, opts.Registries)
	if err != nil {
		return nil, err
	}

	upstream, err := url.Parse(opts.Config.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}

	validated := validation.NewMiddleware(proxy, validator, &validation.MiddlewareConfig{
		ValidateRequest:      opts.Config.RequestValidationEnabled(),
		ValidateResponse:     opts.Config.ResponseValidationEnabled(),
		PassthroughUnmatched: opts.Config.PassthroughUnmatched,
		Logger:               logger,
	})

	return &Gateway{
		cfg:     opts.Config,
		handler: requestID(logger, validated),
		logger:  logger,
	}, nil
}

// Handler returns the gateway's HTTP handler, mainly for tests and for
// embedding the gateway in a larger mux.
func (g *Gateway) Handler() http.Handler { return g.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              g.cfg.Listen,
		Handler:           g.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway listening", "addr", g.cfg.Listen, "upstream", g.cfg.Upstream)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		g.logger.Info("gateway stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestID tags every request with an X-Request-Id (generating one when the
// client did not send one) and logs the request outcome-independently at
// debug level.
func requestID(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger, id := logging.WithRequestID(logger, r.Header.Get("X-Request-Id"))
		r.Header.Set("X-Request-Id", id)
		w.Header().Set("X-Request-Id", id)
		reqLogger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
