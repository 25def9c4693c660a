package gateway

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasgate/oasgate/pkg/config"
)

const gatewaySpec = `
openapi: "3.0.0"
info:
  title: Pets API
  version: "1.0.0"
paths:
  /pets:
    post:
      parameters:
        - name: dryRun
          in: query
          schema:
            type: boolean
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required:
                - name
              properties:
                name:
                  type: string
      responses:
        "201":
          description: Created
          content:
            application/json:
              schema:
                type: object
                required:
                  - id
                properties:
                  id:
                    type: integer
        "400":
          description: Bad Request
`

func newGateway(t *testing.T, upstream string, mutate func(*config.Config)) *Gateway {
	t.Helper()

	specPath := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(gatewaySpec), 0o644))

	cfg := config.Default()
	cfg.Spec = specPath
	cfg.Upstream = upstream
	if mutate != nil {
		mutate(cfg)
	}

	g, err := New(Options{Config: cfg})
	require.NoError(t, err)
	return g
}

func TestGateway_RejectsInvalidRequestBeforeUpstream(t *testing.T) {
	upstreamHit := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamHit = true
	}))
	defer backend.Close()

	g := newGateway(t, backend.URL, nil)

	r := httptest.NewRequest("POST", "/pets", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, r)

	assert.False(t, upstreamHit, "invalid request must not reach the upstream")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`[{"exception":"ValidationError","message":"'name' is a required property","field":"name"}]`,
		rec.Body.String())
}

func TestGateway_ProxiesValidRequest(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer backend.Close()

	g := newGateway(t, backend.URL, nil)

	r := httptest.NewRequest("POST", "/pets?dryRun=true", strings.NewReader(`{"name": "rex"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id": 1}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGateway_ReplacesContractBreakingResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer backend.Close()

	g := newGateway(t, backend.URL, nil)

	r := httptest.NewRequest("POST", "/pets", strings.NewReader(`{"name": "rex"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`[{"exception":"ValidationError","message":"'id' is a required property","field":"id"}]`,
		rec.Body.String())
}

func TestGateway_PassthroughUnmatched(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	t.Run("rejected by default", func(t *testing.T) {
		g := newGateway(t, backend.URL, nil)
		rec := httptest.NewRecorder()
		g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/undocumented", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("forwarded when enabled", func(t *testing.T) {
		g := newGateway(t, backend.URL, func(c *config.Config) {
			c.PassthroughUnmatched = true
		})
		rec := httptest.NewRecorder()
		g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/undocumented", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestNew_ConfigErrors(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Spec = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.Upstream = "http://localhost:3000"
	_, err = New(Options{Config: cfg})
	assert.Error(t, err, "missing spec file must fail at startup")
}
