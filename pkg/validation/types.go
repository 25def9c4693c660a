package validation

// FailureKind discriminates the variants of a Failure. Classification in the
// extractor is a single exhaustive switch over this enumeration.
type FailureKind int

// Failure kinds.
const (
	// KindMissingParameter marks a declared required parameter that is
	// absent from the request.
	KindMissingParameter FailureKind = iota

	// KindParameterCast marks a parameter whose raw value could not be
	// converted to its declared primitive type.
	KindParameterCast

	// KindSchemaValidation marks a JSON-Schema constraint violation on a
	// parameter value or a (possibly nested) body value.
	KindSchemaValidation

	// KindSecurityValidation marks a request that satisfies none of the
	// operation's security requirements.
	KindSecurityValidation

	// KindDeserialization marks a body that could not be deserialized or
	// cast into the shape its schema expects.
	KindDeserialization

	// KindAggregate is a container of child failures. Aggregate nodes
	// contribute no error record themselves; only their leaves do.
	KindAggregate
)

// Location names the part of the HTTP message a failure belongs to.
type Location string

// Failure locations.
const (
	LocationQuery    Location = "query"
	LocationPath     Location = "path"
	LocationHeader   Location = "header"
	LocationCookie   Location = "cookie"
	LocationBody     Location = "body"
	LocationSecurity Location = "security"
	LocationNone     Location = ""
)

// Failure is one reported violation from parameter, body, or security
// checking. Failures form a tree: an Aggregate node holds the per-constraint
// or per-item failures of a nested body structure. Every non-Aggregate node
// carries a non-empty Message.
//
// A Failure tree is owned by the validation call that produced it and is
// fully consumed by extraction within the same request; it is never retained
// across requests.
type Failure struct {
	Kind     FailureKind
	Location Location

	// FieldPath locates the failing value inside a nested body document,
	// one segment per property name or array index. Nil for failures with
	// no traceable field (missing parameter, security).
	FieldPath []string

	// Message is the human-readable description. For schema violations it
	// is the schema-checker wording verbatim; clients rely on it.
	Message string

	// Children is non-empty only when Kind is KindAggregate.
	Children []*Failure

	// Formatter is set when the failure originates from a custom format
	// validator that rejected the value with its own message.
	Formatter *FormatterFailure
}

// leaf builds a single non-aggregate failure.
func leaf(kind FailureKind, loc Location, path []string, message string) *Failure {
	return &Failure{Kind: kind, Location: loc, FieldPath: path, Message: message}
}

// aggregate wraps child failures under one Aggregate node. Returns nil when
// there are no children so callers can append the result unconditionally.
func aggregate(loc Location, children []*Failure) *Failure {
	if len(children) == 0 {
		return nil
	}
	return &Failure{Kind: KindAggregate, Location: loc, Children: children}
}

// field returns the leaf segment of the failure's field path, or "".
func (f *Failure) field() string {
	if len(f.FieldPath) == 0 {
		return ""
	}
	return f.FieldPath[len(f.FieldPath)-1]
}

// FormatterFailure is the structured rejection a custom format validator
// returns to replace the generic "does not match format" message. It
// implements error so validators can return it directly.
type FormatterFailure struct {
	// Value is the value the formatter rejected.
	Value any

	// Type is the formatter's format name, e.g. "unique-name".
	Type string

	// Field is the body field the rejection applies to, recorded by the
	// formatter. When empty, the validator fills in the field under
	// inspection at invocation time.
	Field string

	// Err carries the client-facing message.
	Err error
}

// Error implements error.
func (f *FormatterFailure) Error() string {
	if f.Err != nil {
		return f.Err.Error()
	}
	return "invalid value for format " + f.Type
}

// Unwrap exposes the underlying cause.
func (f *FormatterFailure) Unwrap() error { return f.Err }
