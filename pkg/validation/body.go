package validation

import (
	"encoding/json"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// bodyResult carries the outcome of deserializing and validating a body.
type bodyResult struct {
	value any
	fails []*Failure
}

// validateBody deserializes the raw body for the matched media type and runs
// the cast pass and the schema checks. The pipeline mirrors how the body is
// consumed: a deserialization problem masks everything downstream, a cast
// problem masks the schema checks, and schema checks report every violated
// constraint side by side.
func (v *Validator) validateBody(raw []byte, contentType string, content openapi3.Content, required bool) (*bodyResult, error) {
	res := &bodyResult{}

	if content == nil {
		return res, nil
	}

	if len(raw) == 0 {
		if required {
			res.fails = append(res.fails, leaf(KindDeserialization, LocationBody, nil, "Missing required request body"))
		}
		return res, nil
	}

	mediaType := contentType
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = parsed
		}
	}

	mt := selectMediaType(content, mediaType)
	if mt == nil {
		res.fails = append(res.fails, leaf(
			KindDeserialization, LocationBody, nil,
			fmt.Sprintf("Content for the following mimetype not found: %s", mediaType),
		))
		return res, nil
	}

	value, fail := v.deserializeBody(raw, mediaType)
	if fail != nil {
		res.fails = append(res.fails, fail)
		return res, nil
	}
	res.value = value

	if mt.Schema == nil || mt.Schema.Value == nil {
		return res, nil
	}

	// Cast pass: a primitive that cannot take its declared numeric shape is
	// a deserialization fault of the whole document, reported at the body
	// root, and stops the schema checks.
	if fail := castBodyValue(value, mt.Schema); fail != nil {
		res.fails = append(res.fails, fail)
		return res, nil
	}

	schemaFails, err := v.checker.check(value, mt.Schema, LocationBody, nil)
	if err != nil {
		return nil, err
	}
	if agg := aggregate(LocationBody, schemaFails); agg != nil {
		res.fails = append(res.fails, agg)
	}

	return res, nil
}

// deserializeBody turns raw body bytes into a JSON-like value. A registered
// custom deserializer takes precedence for its exact media type; JSON media
// types fall back to encoding/json; anything else passes through as a string.
func (v *Validator) deserializeBody(raw []byte, mediaType string) (any, *Failure) {
	if fn, ok := v.registries.deserializer(mediaType); ok {
		value, err := fn(raw)
		if err != nil {
			return nil, leaf(KindDeserialization, LocationBody, nil, err.Error())
		}
		return value, nil
	}

	if isJSONMediaType(mediaType) {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, leaf(KindDeserialization, LocationBody, nil, err.Error())
		}
		return value, nil
	}

	return string(raw), nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// selectMediaType picks the content entry for a media type: exact match
// first, then type wildcards, then */*.
func selectMediaType(content openapi3.Content, mediaType string) *openapi3.MediaType {
	if mt, ok := content[mediaType]; ok {
		return mt
	}
	if slash := strings.Index(mediaType, "/"); slash > 0 {
		if mt, ok := content[mediaType[:slash]+"/*"]; ok {
			return mt
		}
	}
	if mt, ok := content["*/*"]; ok {
		return mt
	}
	return nil
}

// castBodyValue walks a decoded document alongside its schema looking for
// string values in positions the schema declares numeric. Such a value never
// deserialized into the document the schema describes, so the first one found
// is reported as a cast fault at the body root.
func castBodyValue(value any, ref *openapi3.SchemaRef) *Failure {
	if ref == nil || ref.Value == nil {
		return nil
	}
	schema := ref.Value

	switch v := value.(type) {
	case string:
		t := primaryType(schema)
		if t == "number" || t == "integer" {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return leaf(
					KindDeserialization, LocationBody, nil,
					fmt.Sprintf("Failed to cast value to %s type: %s", t, v),
				)
			}
		}
	case []any:
		if schema.Items != nil {
			for _, item := range v {
				if fail := castBodyValue(item, schema.Items); fail != nil {
					return fail
				}
			}
		}
	case map[string]any:
		for _, name := range sortedKeys(schema.Properties) {
			if nested, ok := v[name]; ok {
				if fail := castBodyValue(nested, schema.Properties[name]); fail != nil {
					return fail
				}
			}
		}
	}

	for _, sub := range schema.AllOf {
		if fail := castBodyValue(value, sub); fail != nil {
			return fail
		}
	}

	return nil
}
