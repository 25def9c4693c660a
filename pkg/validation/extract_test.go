package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractErrors_Ordering(t *testing.T) {
	failures := []*Failure{
		leaf(KindMissingParameter, LocationQuery, []string{"bar"}, "Missing required query parameter: bar"),
		aggregate(LocationBody, []*Failure{
			leaf(KindSchemaValidation, LocationBody, []string{"foo"}, "'12' is too short"),
			aggregate(LocationBody, []*Failure{
				leaf(KindSchemaValidation, LocationBody, []string{"foo", "0", "bam"}, "1 is not of type 'string'"),
			}),
		}),
		leaf(KindSecurityValidation, LocationSecurity, nil, "Security not found. Schemes not valid for any requirement: [['Token']]"),
	}

	records := ExtractErrors(failures)
	assert.Equal(t, []ErrorRecord{
		{Exception: "MissingRequiredParameter", Message: "Missing required query parameter: bar", Field: "bar"},
		{Exception: "ValidationError", Message: "'12' is too short", Field: "foo"},
		{Exception: "ValidationError", Message: "1 is not of type 'string'", Field: "bam"},
		{Exception: "SecurityValidationError", Message: "Security not found. Schemes not valid for any requirement: [['Token']]"},
	}, records)
}

func TestExtractErrors_NoDeduplication(t *testing.T) {
	same := leaf(KindSchemaValidation, LocationBody, []string{"foo"}, "'1234' is too short")
	records := ExtractErrors([]*Failure{same, same})
	assert.Len(t, records, 2)
	assert.Equal(t, records[0], records[1])
}

func TestExtractErrors_FormatterOverridesKind(t *testing.T) {
	fail := leaf(KindSchemaValidation, LocationBody, []string{"name"}, "generic message")
	fail.Formatter = &FormatterFailure{
		Value: "alice",
		Type:  "unique-name",
		Field: "name",
		Err:   errors.New("Name 'alice' already taken. Choose a different name!"),
	}

	records := ExtractErrors([]*Failure{fail})
	assert.Equal(t, []ErrorRecord{{
		Exception: "InvalidCustomFormatterValue",
		Message:   "Name 'alice' already taken. Choose a different name!",
		Field:     "name",
	}}, records)
}

func TestExtractErrors_DeserializationHasNoField(t *testing.T) {
	fail := leaf(KindDeserialization, LocationBody, nil, "Failed to cast value to number type: not a number")
	records := ExtractErrors([]*Failure{fail})
	assert.Equal(t, []ErrorRecord{{
		Exception: "RequestBodyValidationError",
		Message:   "Failed to cast value to number type: not a number",
	}}, records)
}

func TestRequestFailures_CategoryOrder(t *testing.T) {
	rf := RequestFailures{
		Body:       []*Failure{leaf(KindSchemaValidation, LocationBody, []string{"foo"}, "body failure")},
		Security:   []*Failure{leaf(KindSecurityValidation, LocationSecurity, nil, "security failure")},
		Parameters: []*Failure{leaf(KindMissingParameter, LocationQuery, []string{"bar"}, "parameter failure")},
	}

	records := rf.Extract()
	assert.Equal(t, "MissingRequiredParameter", records[0].Exception)
	assert.Equal(t, "SecurityValidationError", records[1].Exception)
	assert.Equal(t, "ValidationError", records[2].Exception)
}

func TestRequestFailures_Empty(t *testing.T) {
	var rf RequestFailures
	assert.True(t, rf.Empty())
	assert.Empty(t, rf.Extract())

	rf.Security = []*Failure{leaf(KindSecurityValidation, LocationSecurity, nil, "x")}
	assert.False(t, rf.Empty())
}

func TestAggregate_NilWhenEmpty(t *testing.T) {
	assert.Nil(t, aggregate(LocationBody, nil))
	assert.Empty(t, ExtractErrors([]*Failure{nil, aggregate(LocationBody, nil)}))
}
