package validation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type contextKey int

const validatedKey contextKey = iota

// ValidatedFromContext returns the deserialized parameters and body that
// request validation produced, if the request passed through the middleware.
func ValidatedFromContext(ctx context.Context) (*Validated, bool) {
	v, ok := ctx.Value(validatedKey).(*Validated)
	return v, ok
}

// MiddlewareConfig controls which directions the middleware validates.
type MiddlewareConfig struct {
	// ValidateRequest rejects non-conforming requests before the handler runs.
	ValidateRequest bool
	// ValidateResponse buffers handler output and replaces it with a 500 when
	// it violates the declared response contract.
	ValidateResponse bool
	// PassthroughUnmatched lets requests that match no documented path reach
	// the handler unvalidated instead of being rejected with 404.
	PassthroughUnmatched bool
	// Logger receives a warning per validation failure. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// DefaultMiddlewareConfig validates both directions and rejects undocumented
// paths.
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{ValidateRequest: true, ValidateResponse: true}
}

// Middleware wraps an http.Handler with contract validation on both the
// incoming request and the outgoing response.
type Middleware struct {
	handler   http.Handler
	validator *Validator
	config    *MiddlewareConfig
	logger    *slog.Logger
}

// NewMiddleware wraps handler with validation against validator's document.
func NewMiddleware(handler http.Handler, validator *Validator, config *MiddlewareConfig) *Middleware {
	if config == nil {
		config = DefaultMiddlewareConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		handler:   handler,
		validator: validator,
		config:    config,
		logger:    logger,
	}
}

// NewMiddlewareFunc returns a func(http.Handler) http.Handler adapter for
// use with router middleware chains.
func NewMiddlewareFunc(validator *Validator, config *MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return NewMiddleware(next, validator, config)
	}
}

// responseRecorder buffers the handler's response so it can be validated
// before anything reaches the client. Nothing is written through until
// flush.
type responseRecorder struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(code int) { r.statusCode = code }

func (r *responseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *responseRecorder) flush(w http.ResponseWriter) {
	for k, vs := range r.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.statusCode)
	w.Write(r.body.Bytes()) //nolint:errcheck
}

// ServeHTTP implements http.Handler.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.config.ValidateRequest {
		validated, err := m.validator.ValidateRequest(r)
		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), validatedKey, validated))
		case errors.Is(err, ErrRouteNotFound):
			if m.config.PassthroughUnmatched {
				m.handler.ServeHTTP(w, r)
				return
			}
			http.NotFound(w, r)
			return
		default:
			var reqErr *RequestValidationError
			if errors.As(err, &reqErr) {
				for _, rec := range reqErr.Errors {
					m.logger.Warn("request validation failed",
						"method", r.Method, "path", r.URL.Path,
						"exception", rec.Exception, "field", rec.Field,
						"message", rec.Message)
				}
				RenderErrors(w, reqErr)
				return
			}
			m.logger.Error("request validation error",
				"method", r.Method, "path", r.URL.Path, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	if !m.config.ValidateResponse {
		m.handler.ServeHTTP(w, r)
		return
	}

	recorder := newResponseRecorder()
	m.handler.ServeHTTP(recorder, r)

	err := m.validator.ValidateResponse(r, recorder.statusCode, recorder.header, recorder.body.Bytes())
	if err == nil {
		recorder.flush(w)
		return
	}

	var respErr *ResponseValidationError
	if errors.As(err, &respErr) {
		for _, rec := range respErr.Errors {
			m.logger.Warn("response validation failed",
				"method", r.Method, "path", r.URL.Path, "status", recorder.statusCode,
				"exception", rec.Exception, "field", rec.Field,
				"message", rec.Message)
		}
		RenderErrors(w, respErr)
		return
	}
	m.logger.Error("response validation error",
		"method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
