package validation

import (
	"errors"
	"fmt"
)

// Registration errors. Duplicate registration is rejected rather than
// overwritten so configuration mistakes surface at startup.
var (
	ErrDuplicateFormat       = errors.New("format validator already registered")
	ErrDuplicateDeserializer = errors.New("deserializer already registered")
)

// FormatValidator checks a JSON scalar against a custom string format.
// It reports whether the value matches. Returning a *FormatterFailure as the
// error rejects the value with a custom message in place of the generic
// format mismatch; any other non-nil error is treated as a validator defect
// and aborts the request with an internal fault.
type FormatValidator func(value any) (bool, error)

// Deserializer converts a raw request or response body of a registered media
// type into a JSON-like value prior to schema validation.
type Deserializer func(data []byte) (any, error)

// Registries holds the custom format validators and body deserializers a
// Validator consults. A Registries value is populated once during application
// setup and read-only afterwards; it is safe for concurrent reads across
// requests as long as no registration happens after the server starts.
type Registries struct {
	formats       map[string]FormatValidator
	deserializers map[string]Deserializer
}

// NewRegistries returns empty registries.
func NewRegistries() *Registries {
	return &Registries{
		formats:       make(map[string]FormatValidator),
		deserializers: make(map[string]Deserializer),
	}
}

// AddFormatValidator binds a custom format name to a validator. Registration
// is append-only: rebinding an existing name returns ErrDuplicateFormat.
func (r *Registries) AddFormatValidator(name string, fn FormatValidator) error {
	if fn == nil {
		return fmt.Errorf("format validator %q is nil", name)
	}
	if _, exists := r.formats[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFormat, name)
	}
	r.formats[name] = fn
	return nil
}

// AddDeserializer binds a media type to a body deserializer. Registration is
// append-only: rebinding an existing media type returns
// ErrDuplicateDeserializer.
func (r *Registries) AddDeserializer(mediaType string, fn Deserializer) error {
	if fn == nil {
		return fmt.Errorf("deserializer %q is nil", mediaType)
	}
	if _, exists := r.deserializers[mediaType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDeserializer, mediaType)
	}
	r.deserializers[mediaType] = fn
	return nil
}

// formatValidator looks up a custom format validator. The second return is
// false when the format is not registered, in which case built-in format
// handling applies.
func (r *Registries) formatValidator(name string) (FormatValidator, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.formats[name]
	return fn, ok
}

// deserializer looks up a custom body deserializer by exact media type.
func (r *Registries) deserializer(mediaType string) (Deserializer, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.deserializers[mediaType]
	return fn, ok
}
