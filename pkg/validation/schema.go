package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"
)

// schemaChecker walks values against openapi3 schemas and reports constraint
// violations as Failure leaves. Message wording follows the jsonschema
// conventions API clients already parse ("'foo' is a required property",
// "1 is not of type 'string'", "'12' is too short"); changing it breaks the
// compatibility contract.
type schemaChecker struct {
	registries *Registries

	// patterns caches compiled regexes (sync.Map[string]*regexp.Regexp).
	patterns sync.Map
}

// check validates value against schema, appending one leaf per violated
// constraint. The returned error is reserved for custom-formatter defects,
// which abort the request as an internal fault rather than a client error.
func (c *schemaChecker) check(value any, ref *openapi3.SchemaRef, loc Location, path []string) ([]*Failure, error) {
	if ref == nil || ref.Value == nil {
		return nil, nil
	}
	schema := ref.Value

	if value == nil {
		if schema.Nullable || hasType(schema, "null") {
			return nil, nil
		}
		if t := primaryType(schema); t != "" {
			return []*Failure{c.violation(loc, path, "None is not of type '%s'", t)}, nil
		}
		return nil, nil
	}

	// A type mismatch makes the remaining constraints meaningless, so it is
	// reported alone.
	if fail := c.checkType(value, schema, loc, path); fail != nil {
		return []*Failure{fail}, nil
	}

	var fails []*Failure
	var err error

	switch v := value.(type) {
	case string:
		fails, err = c.checkString(v, schema, loc, path)
		if err != nil {
			return nil, err
		}
	case float64:
		fails = c.checkNumber(v, schema, loc, path)
	case int:
		fails = c.checkNumber(float64(v), schema, loc, path)
	case int64:
		fails = c.checkNumber(float64(v), schema, loc, path)
	case []any:
		fails, err = c.checkArray(v, schema, loc, path)
		if err != nil {
			return nil, err
		}
	case map[string]any:
		fails, err = c.checkObject(v, schema, loc, path)
		if err != nil {
			return nil, err
		}
	}

	if len(schema.Enum) > 0 {
		if fail := c.checkEnum(value, schema, loc, path); fail != nil {
			fails = append(fails, fail)
		}
	}

	composed, err := c.checkComposition(value, schema, loc, path)
	if err != nil {
		return nil, err
	}
	fails = append(fails, composed...)

	return fails, nil
}

func (c *schemaChecker) checkType(value any, schema *openapi3.Schema, loc Location, path []string) *Failure {
	want := primaryType(schema)
	if want == "" {
		return nil
	}

	got := jsonType(value)
	switch {
	case got == want:
	case want == "number" && got == "integer":
	case want == "integer" && got == "number":
		if f, ok := value.(float64); ok && f != float64(int64(f)) {
			return c.violation(loc, path, "%s is not of type 'integer'", pyRepr(value))
		}
	default:
		return c.violation(loc, path, "%s is not of type '%s'", pyRepr(value), want)
	}
	return nil
}

func (c *schemaChecker) checkString(s string, schema *openapi3.Schema, loc Location, path []string) ([]*Failure, error) {
	var fails []*Failure

	length := uint64(utf8.RuneCountInString(s))
	if schema.MinLength > 0 && length < schema.MinLength {
		fails = append(fails, c.violation(loc, path, "'%s' is too short", s))
	}
	if schema.MaxLength != nil && length > *schema.MaxLength {
		fails = append(fails, c.violation(loc, path, "'%s' is too long", s))
	}

	if schema.Pattern != "" {
		matched, err := c.matchPattern(schema.Pattern, s)
		if err == nil && !matched {
			fails = append(fails, c.violation(loc, path, "'%s' does not match '%s'", s, schema.Pattern))
		}
	}

	if schema.Format != "" {
		fail, err := c.checkFormat(s, schema.Format, loc, path)
		if err != nil {
			return nil, err
		}
		if fail != nil {
			fails = append(fails, fail)
		}
	}

	return fails, nil
}

// checkFormat applies a registered custom format validator when one exists,
// falling back to the built-in format checks otherwise. A custom validator
// that rejects with a FormatterFailure substitutes its own failure for the
// generic message; any other error it returns is a server defect and
// propagates untouched.
func (c *schemaChecker) checkFormat(value any, format string, loc Location, path []string) (*Failure, error) {
	if fn, ok := c.registries.formatValidator(format); ok {
		valid, err := fn(value)
		if err != nil {
			if ff, ok := asFormatterFailure(err); ok {
				if ff.Field == "" && len(path) > 0 {
					ff.Field = path[len(path)-1]
				}
				fail := leaf(KindSchemaValidation, loc, clonePath(path), ff.Error())
				fail.Formatter = ff
				return fail, nil
			}
			return nil, fmt.Errorf("format validator %q: %w", format, err)
		}
		if !valid {
			return c.violation(loc, path, "%s is not a '%s'", pyRepr(value), format), nil
		}
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, nil
	}
	switch format {
	case "uuid":
		if !uuidPattern.MatchString(s) {
			return c.violation(loc, path, "badly formed hexadecimal UUID string"), nil
		}
	case "date":
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return c.violation(loc, path, "%s is not a 'date'", pyRepr(s)), nil
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return c.violation(loc, path, "%s is not a 'date-time'", pyRepr(s)), nil
		}
	}
	// Unrecognized formats are annotations, not assertions.
	return nil, nil
}

func (c *schemaChecker) checkNumber(n float64, schema *openapi3.Schema, loc Location, path []string) []*Failure {
	var fails []*Failure

	if schema.Min != nil {
		if schema.ExclusiveMin && n <= *schema.Min {
			fails = append(fails, c.violation(loc, path, "%s is less than or equal to the minimum of %s", pyNum(n), pyNum(*schema.Min)))
		} else if !schema.ExclusiveMin && n < *schema.Min {
			fails = append(fails, c.violation(loc, path, "%s is less than the minimum of %s", pyNum(n), pyNum(*schema.Min)))
		}
	}
	if schema.Max != nil {
		if schema.ExclusiveMax && n >= *schema.Max {
			fails = append(fails, c.violation(loc, path, "%s is greater than or equal to the maximum of %s", pyNum(n), pyNum(*schema.Max)))
		} else if !schema.ExclusiveMax && n > *schema.Max {
			fails = append(fails, c.violation(loc, path, "%s is greater than the maximum of %s", pyNum(n), pyNum(*schema.Max)))
		}
	}
	if schema.MultipleOf != nil && *schema.MultipleOf != 0 {
		ratio := n / *schema.MultipleOf
		if ratio != float64(int64(ratio)) {
			fails = append(fails, c.violation(loc, path, "%s is not a multiple of %s", pyNum(n), pyNum(*schema.MultipleOf)))
		}
	}

	return fails
}

func (c *schemaChecker) checkArray(arr []any, schema *openapi3.Schema, loc Location, path []string) ([]*Failure, error) {
	var fails []*Failure

	if schema.MinItems > 0 && uint64(len(arr)) < schema.MinItems {
		fails = append(fails, c.violation(loc, path, "%s is too short", pyRepr(arr)))
	}
	if schema.MaxItems != nil && uint64(len(arr)) > *schema.MaxItems {
		fails = append(fails, c.violation(loc, path, "%s is too long", pyRepr(arr)))
	}
	if schema.UniqueItems && hasDuplicateItems(arr) {
		fails = append(fails, c.violation(loc, path, "%s has non-unique elements", pyRepr(arr)))
	}

	if schema.Items != nil {
		for i, item := range arr {
			sub, err := c.check(item, schema.Items, loc, append(clonePath(path), strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			fails = append(fails, sub...)
		}
	}

	return fails, nil
}

func (c *schemaChecker) checkObject(obj map[string]any, schema *openapi3.Schema, loc Location, path []string) ([]*Failure, error) {
	var fails []*Failure

	for _, name := range schema.Required {
		if _, present := obj[name]; !present {
			fails = append(fails, c.violation(loc, append(clonePath(path), name), "'%s' is a required property", name))
		}
	}

	if schema.MinProps > 0 && uint64(len(obj)) < schema.MinProps {
		fails = append(fails, c.violation(loc, path, "%s does not have enough properties", pyRepr(obj)))
	}
	if schema.MaxProps != nil && uint64(len(obj)) > *schema.MaxProps {
		fails = append(fails, c.violation(loc, path, "%s has too many properties", pyRepr(obj)))
	}

	// Property order is not recoverable from the schema model, so a sorted
	// walk keeps repeated validations byte-identical.
	for _, name := range sortedKeys(schema.Properties) {
		value, present := obj[name]
		if !present {
			continue
		}
		sub, err := c.check(value, schema.Properties[name], loc, append(clonePath(path), name))
		if err != nil {
			return nil, err
		}
		fails = append(fails, sub...)
	}

	if schema.AdditionalProperties.Has != nil && !*schema.AdditionalProperties.Has {
		for _, name := range sortedMapKeys(obj) {
			if _, declared := schema.Properties[name]; !declared {
				fails = append(fails, c.violation(loc, path, "Additional properties are not allowed ('%s' was unexpected)", name))
			}
		}
	}

	return fails, nil
}

func (c *schemaChecker) checkEnum(value any, schema *openapi3.Schema, loc Location, path []string) *Failure {
	for _, allowed := range schema.Enum {
		if valuesEqual(value, allowed) {
			return nil
		}
	}
	reprs := make([]string, len(schema.Enum))
	for i, allowed := range schema.Enum {
		reprs[i] = pyRepr(allowed)
	}
	return c.violation(loc, path, "%s is not one of [%s]", pyRepr(value), strings.Join(reprs, ", "))
}

func (c *schemaChecker) checkComposition(value any, schema *openapi3.Schema, loc Location, path []string) ([]*Failure, error) {
	var fails []*Failure

	for _, sub := range schema.AllOf {
		subFails, err := c.check(value, sub, loc, path)
		if err != nil {
			return nil, err
		}
		fails = append(fails, subFails...)
	}

	if len(schema.AnyOf) > 0 {
		matched := false
		for _, sub := range schema.AnyOf {
			subFails, err := c.check(value, sub, loc, path)
			if err != nil {
				return nil, err
			}
			if len(subFails) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			fails = append(fails, c.violation(loc, path, "%s is not valid under any of the given schemas", pyRepr(value)))
		}
	}

	if len(schema.OneOf) > 0 {
		matches := 0
		for _, sub := range schema.OneOf {
			subFails, err := c.check(value, sub, loc, path)
			if err != nil {
				return nil, err
			}
			if len(subFails) == 0 {
				matches++
			}
		}
		if matches == 0 {
			fails = append(fails, c.violation(loc, path, "%s is not valid under any of the given schemas", pyRepr(value)))
		} else if matches > 1 {
			fails = append(fails, c.violation(loc, path, "%s is valid under each of the given schemas", pyRepr(value)))
		}
	}

	return fails, nil
}

func (c *schemaChecker) violation(loc Location, path []string, format string, args ...any) *Failure {
	return leaf(KindSchemaValidation, loc, clonePath(path), fmt.Sprintf(format, args...))
}

func (c *schemaChecker) matchPattern(pattern, s string) (bool, error) {
	if cached, ok := c.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(s), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	c.patterns.Store(pattern, re)
	return re.MatchString(s), nil
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// primaryType returns the first non-null type of a schema, or "".
func primaryType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		return ""
	}
	for _, t := range schema.Type.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}

func hasType(schema *openapi3.Schema, want string) bool {
	if schema.Type == nil {
		return false
	}
	for _, t := range schema.Type.Slice() {
		if t == want {
			return true
		}
	}
	return false
}

// jsonType names the JSON Schema type of a decoded value.
func jsonType(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case int, int64:
		return "integer"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func hasDuplicateItems(arr []any) bool {
	seen := make(map[string]bool, len(arr))
	for _, item := range arr {
		key := pyRepr(item)
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func valuesEqual(a, b any) bool {
	return pyRepr(a) == pyRepr(b)
}

func clonePath(path []string) []string {
	if path == nil {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}

func sortedKeys(m openapi3.Schemas) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pyRepr renders a decoded JSON value the way the schema-checker messages
// quote values: strings in single quotes, numbers without a trailing .0,
// booleans and null in their Python spellings, containers recursively.
func pyRepr(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return "'" + v + "'"
	case float64:
		return pyNum(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = pyRepr(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := sortedMapKeys(v)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = "'" + k + "': " + pyRepr(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func pyNum(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func asFormatterFailure(err error) (*FormatterFailure, bool) {
	var ff *FormatterFailure
	if errors.As(err, &ff) {
		return ff, true
	}
	return nil, false
}
