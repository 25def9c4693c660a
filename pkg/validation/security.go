package validation

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// validateSecurity checks the operation's security requirements (falling back
// to the document-level default). Requirements are alternatives: the request
// passes if any single requirement is fully satisfied. A request satisfying
// none of them yields exactly one failure naming every rejected requirement.
func (v *Validator) validateSecurity(r *http.Request, op *openapi3.Operation) []*Failure {
	requirements := v.doc.Security
	if op.Security != nil {
		requirements = *op.Security
	}
	if len(requirements) == 0 {
		return nil
	}

	for _, req := range requirements {
		if v.securitySatisfied(r, req) {
			return nil
		}
	}

	return []*Failure{leaf(
		KindSecurityValidation, LocationSecurity, nil,
		fmt.Sprintf("Security not found. Schemes not valid for any requirement: %s", renderRequirements(requirements)),
	)}
}

// securitySatisfied reports whether every scheme named by one requirement is
// present on the request. An empty requirement means the operation is
// accessible without credentials.
func (v *Validator) securitySatisfied(r *http.Request, req openapi3.SecurityRequirement) bool {
	for name := range req {
		scheme := v.securityScheme(name)
		if scheme == nil || !schemePresent(r, scheme) {
			return false
		}
	}
	return true
}

func (v *Validator) securityScheme(name string) *openapi3.SecurityScheme {
	if v.doc.Components == nil {
		return nil
	}
	ref, ok := v.doc.Components.SecuritySchemes[name]
	if !ok || ref.Value == nil {
		return nil
	}
	return ref.Value
}

// schemePresent checks that the credentials a scheme calls for were sent.
// Verifying the credentials themselves is the application's concern.
func schemePresent(r *http.Request, scheme *openapi3.SecurityScheme) bool {
	switch scheme.Type {
	case "apiKey":
		switch scheme.In {
		case "header":
			return r.Header.Get(scheme.Name) != ""
		case "query":
			return r.URL.Query().Get(scheme.Name) != ""
		case "cookie":
			cookie, err := r.Cookie(scheme.Name)
			return err == nil && cookie.Value != ""
		}
		return false
	case "http":
		auth := r.Header.Get("Authorization")
		if auth == "" {
			return false
		}
		switch strings.ToLower(scheme.Scheme) {
		case "bearer":
			return strings.HasPrefix(auth, "Bearer ")
		case "basic":
			return strings.HasPrefix(auth, "Basic ")
		}
		return true
	case "oauth2", "openIdConnect":
		return r.Header.Get("Authorization") != ""
	default:
		return false
	}
}

// renderRequirements formats security requirements as a nested list of
// scheme names, e.g. [['Token'], ['ApiKey', 'AppId']]. Scheme names within a
// requirement are sorted for deterministic output.
func renderRequirements(requirements openapi3.SecurityRequirements) string {
	outer := make([]string, len(requirements))
	for i, req := range requirements {
		names := make([]string, 0, len(req))
		for name := range req {
			names = append(names, name)
		}
		sort.Strings(names)
		quoted := make([]string, len(names))
		for j, name := range names {
			quoted[j] = "'" + name + "'"
		}
		outer[i] = "[" + strings.Join(quoted, ", ") + "]"
	}
	return "[" + strings.Join(outer, ", ") + "]"
}
