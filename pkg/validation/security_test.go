package validation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
)

func TestRenderRequirements(t *testing.T) {
	tests := []struct {
		name         string
		requirements openapi3.SecurityRequirements
		want         string
	}{
		{
			name:         "single scheme",
			requirements: openapi3.SecurityRequirements{{"Token": {}}},
			want:         "[['Token']]",
		},
		{
			name: "multiple alternatives",
			requirements: openapi3.SecurityRequirements{
				{"Token": {}},
				{"ApiKey": {}, "AppId": {}},
			},
			want: "[['Token'], ['ApiKey', 'AppId']]",
		},
		{
			name:         "scheme names sorted within a requirement",
			requirements: openapi3.SecurityRequirements{{"Zed": {}, "Abel": {}}},
			want:         "[['Abel', 'Zed']]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderRequirements(tt.requirements))
		})
	}
}

func TestSchemePresent(t *testing.T) {
	t.Run("apiKey header", func(t *testing.T) {
		scheme := &openapi3.SecurityScheme{Type: "apiKey", In: "header", Name: "X-Api-Key"}
		r := httptest.NewRequest("GET", "/", nil)
		assert.False(t, schemePresent(r, scheme))
		r.Header.Set("X-Api-Key", "k")
		assert.True(t, schemePresent(r, scheme))
	})

	t.Run("apiKey query", func(t *testing.T) {
		scheme := &openapi3.SecurityScheme{Type: "apiKey", In: "query", Name: "token"}
		assert.False(t, schemePresent(httptest.NewRequest("GET", "/", nil), scheme))
		assert.True(t, schemePresent(httptest.NewRequest("GET", "/?token=k", nil), scheme))
	})

	t.Run("apiKey cookie", func(t *testing.T) {
		scheme := &openapi3.SecurityScheme{Type: "apiKey", In: "cookie", Name: "session"}
		r := httptest.NewRequest("GET", "/", nil)
		assert.False(t, schemePresent(r, scheme))
		r.AddCookie(&http.Cookie{Name: "session", Value: "s"})
		assert.True(t, schemePresent(r, scheme))
	})

	t.Run("http bearer", func(t *testing.T) {
		scheme := &openapi3.SecurityScheme{Type: "http", Scheme: "bearer"}
		r := httptest.NewRequest("GET", "/", nil)
		assert.False(t, schemePresent(r, scheme))
		r.Header.Set("Authorization", "Basic Zm9v")
		assert.False(t, schemePresent(r, scheme))
		r.Header.Set("Authorization", "Bearer abc")
		assert.True(t, schemePresent(r, scheme))
	})

	t.Run("http basic", func(t *testing.T) {
		scheme := &openapi3.SecurityScheme{Type: "http", Scheme: "basic"}
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Basic Zm9v")
		assert.True(t, schemePresent(r, scheme))
	})

	t.Run("oauth2 needs any authorization header", func(t *testing.T) {
		scheme := &openapi3.SecurityScheme{Type: "oauth2"}
		r := httptest.NewRequest("GET", "/", nil)
		assert.False(t, schemePresent(r, scheme))
		r.Header.Set("Authorization", "Bearer abc")
		assert.True(t, schemePresent(r, scheme))
	})
}
