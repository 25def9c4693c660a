package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// collectParameters merges path-item and operation parameters, preserving
// declaration order. An operation-level parameter overrides a path-item
// parameter with the same name and location, in place.
func collectParameters(pathItem *openapi3.PathItem, op *openapi3.Operation) []*openapi3.Parameter {
	var out []*openapi3.Parameter
	index := make(map[string]int)

	add := func(refs openapi3.Parameters) {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			key := p.In + ":" + p.Name
			if i, seen := index[key]; seen {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}

	if pathItem != nil {
		add(pathItem.Parameters)
	}
	if op != nil {
		add(op.Parameters)
	}
	return out
}

// validateParameters checks every declared parameter in declaration order.
// A missing required parameter is reported before any cast or schema check
// for that parameter would run; a present parameter is first cast to its
// declared primitive type and, on success, checked against its schema.
// Cast values are recorded in values for handler access.
func (v *Validator) validateParameters(r *http.Request, pathParams map[string]string, params []*openapi3.Parameter, values map[string]any) ([]*Failure, error) {
	var fails []*Failure

	for _, p := range params {
		raw, present := parameterValue(r, pathParams, p)
		loc := Location(p.In)

		if !present {
			if p.Required {
				fails = append(fails, leaf(
					KindMissingParameter, loc, []string{p.Name},
					fmt.Sprintf("Missing required %s parameter: %s", p.In, p.Name),
				))
			}
			continue
		}

		if p.Schema == nil || p.Schema.Value == nil {
			values[p.Name] = raw
			continue
		}

		value, castErr := castParameter(raw, p.Schema.Value)
		if castErr != nil {
			fails = append(fails, leaf(
				KindParameterCast, loc, []string{p.Name},
				fmt.Sprintf("Failed to cast value to %s type: %s", primaryType(p.Schema.Value), raw),
			))
			continue
		}
		values[p.Name] = value

		schemaFails, err := v.checker.check(value, p.Schema, loc, []string{p.Name})
		if err != nil {
			return nil, err
		}
		fails = append(fails, schemaFails...)
	}

	return fails, nil
}

// parameterValue fetches the raw string value of a parameter from its
// declared location. The second return reports presence: an empty value in
// the query string still counts as present.
func parameterValue(r *http.Request, pathParams map[string]string, p *openapi3.Parameter) (string, bool) {
	switch p.In {
	case openapi3.ParameterInPath:
		raw, ok := pathParams[p.Name]
		return raw, ok
	case openapi3.ParameterInQuery:
		values, ok := r.URL.Query()[p.Name]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	case openapi3.ParameterInHeader:
		values, ok := r.Header[http.CanonicalHeaderKey(p.Name)]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	case openapi3.ParameterInCookie:
		cookie, err := r.Cookie(p.Name)
		if errors.Is(err, http.ErrNoCookie) {
			return "", false
		}
		return cookie.Value, true
	default:
		return "", false
	}
}

// castParameter converts a raw parameter string to the Go value its schema
// type calls for. String-typed (and untyped) parameters pass through.
func castParameter(raw string, schema *openapi3.Schema) (any, error) {
	switch primaryType(schema) {
	case "integer":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return float64(n), nil
	case "number":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "boolean":
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("not a boolean: %s", raw)
		}
	default:
		return raw, nil
	}
}
