package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// ErrRouteNotFound reports that a request matched no path in the document.
// Routing is the embedding framework's concern; callers typically pass such
// requests through unvalidated.
var ErrRouteNotFound = errors.New("no matching route in OpenAPI document")

// maxBodySize caps how much of a body is buffered for validation.
const maxBodySize = 10 << 20 // 10MB

// Validator checks HTTP requests and responses against an OpenAPI 3
// document. It is safe for concurrent use once constructed: the document,
// router, and registries are all read-only after New returns.
type Validator struct {
	doc        *openapi3.T
	router     routers.Router
	registries *Registries
	checker    *schemaChecker
}

// New builds a Validator for a loaded document. registries may be nil when
// no custom formats or deserializers are needed.
func New(doc *openapi3.T, registries *Registries) (*Validator, error) {
	if doc == nil {
		return nil, errors.New("openapi document is required")
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	if registries == nil {
		registries = NewRegistries()
	}
	return &Validator{
		doc:        doc,
		router:     router,
		registries: registries,
		checker:    &schemaChecker{registries: registries},
	}, nil
}

// LoadSpecFile loads and validates an OpenAPI document from a file path.
// External $refs are resolved relative to the file.
func LoadSpecFile(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load spec %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid spec %s: %w", path, err)
	}
	return doc, nil
}

// LoadSpecData loads and validates an OpenAPI document from raw YAML or JSON.
func LoadSpecData(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid spec: %w", err)
	}
	return doc, nil
}

// Validated holds the deserialized request values produced by a successful
// validation: parameters cast to their schema types and the decoded body.
type Validated struct {
	Params map[string]any
	Body   any
}

// ValidateRequest validates a request's parameters, security requirements,
// and body against its matched operation. On contract violations it returns
// a *RequestValidationError carrying the extracted records in category order
// (parameters, security, body). Any other error is an internal fault: an
// unroutable request (ErrRouteNotFound), an unreadable body, or a defective
// custom format validator.
//
// The request body is buffered and restored so the downstream handler can
// read it again.
func (v *Validator) ValidateRequest(r *http.Request) (*Validated, error) {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return nil, ErrRouteNotFound
	}
	op := route.Operation
	if op == nil {
		return nil, ErrRouteNotFound
	}

	var rf RequestFailures
	validated := &Validated{Params: make(map[string]any)}

	params := collectParameters(route.PathItem, op)
	rf.Parameters, err = v.validateParameters(r, pathParams, params, validated.Params)
	if err != nil {
		return nil, err
	}

	rf.Security = v.validateSecurity(r, op)

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		raw, err := bufferBody(r)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		res, err := v.validateBody(raw, r.Header.Get("Content-Type"), op.RequestBody.Value.Content, op.RequestBody.Value.Required)
		if err != nil {
			return nil, err
		}
		rf.Body = res.fails
		validated.Body = res.value
	}

	if !rf.Empty() {
		return nil, &RequestValidationError{Errors: rf.Extract()}
	}
	return validated, nil
}

// ValidateResponse validates a handler's response against the contract the
// matched operation declares for its status code. An undeclared status code
// yields a single synthetic record; a declared status with a schema runs the
// same deserialize-and-check pipeline as request bodies. Violations return a
// *ResponseValidationError; they are the server's fault, never the client's.
func (v *Validator) ValidateResponse(r *http.Request, status int, header http.Header, body []byte) error {
	route, _, err := v.router.FindRoute(r)
	if err != nil || route.Operation == nil {
		return nil
	}
	responses := route.Operation.Responses
	if responses == nil || responses.Len() == 0 {
		return nil
	}

	ref := responses.Status(status)
	if ref == nil {
		ref = responses.Default()
	}
	if ref == nil || ref.Value == nil {
		return &ResponseValidationError{Errors: []ErrorRecord{{
			Exception: ExcResponseNotFound,
			Message:   fmt.Sprintf("Unknown response http status: %d", status),
		}}}
	}

	if ref.Value.Content == nil {
		return nil
	}

	res, err := v.validateBody(body, header.Get("Content-Type"), ref.Value.Content, false)
	if err != nil {
		return err
	}
	if len(res.fails) > 0 {
		return &ResponseValidationError{Errors: ExtractErrors(res.fails)}
	}
	return nil
}

// Registries exposes the validator's registries, mainly for logging and
// introspection; mutating them after the server starts is not supported.
func (v *Validator) Registries() *Registries { return v.registries }

// Doc returns the loaded OpenAPI document.
func (v *Validator) Doc() *openapi3.T { return v.doc }

// bufferBody reads the request body and replaces it with a replayable copy.
func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}
