package validation

// RequestFailures groups the top-level failures of one validation pass by
// category. Each parameter, the security requirements, and the body are
// validated independently, so multiple top-level failures coexist.
type RequestFailures struct {
	// Parameters holds per-parameter failures in declaration order. One
	// parameter may contribute more than one failure.
	Parameters []*Failure

	// Security holds security-requirement failures.
	Security []*Failure

	// Body holds request or response body failures, possibly aggregated.
	Body []*Failure
}

// Empty reports whether no failures were collected.
func (rf *RequestFailures) Empty() bool {
	return len(rf.Parameters) == 0 && len(rf.Security) == 0 && len(rf.Body) == 0
}

// Extract flattens the collected failure trees into the client-facing record
// list. Categories are emitted in a fixed order (parameters, then security,
// then body: the order a client would fix things in), and within a category
// records follow the depth-first, left-to-right order the failures were
// reported in.
func (rf *RequestFailures) Extract() []ErrorRecord {
	var records []ErrorRecord
	records = appendRecords(records, rf.Parameters)
	records = appendRecords(records, rf.Security)
	records = appendRecords(records, rf.Body)
	return records
}

// ExtractErrors flattens an ordered collection of failure trees. Aggregate
// nodes contribute nothing themselves; every reachable leaf appears exactly
// once, in traversal order, with no deduplication and no truncation.
func ExtractErrors(failures []*Failure) []ErrorRecord {
	return appendRecords(nil, failures)
}

func appendRecords(records []ErrorRecord, failures []*Failure) []ErrorRecord {
	for _, f := range failures {
		records = appendRecord(records, f)
	}
	return records
}

func appendRecord(records []ErrorRecord, f *Failure) []ErrorRecord {
	if f == nil {
		return records
	}
	if f.Kind == KindAggregate {
		return appendRecords(records, f.Children)
	}

	// A custom-formatter rejection overrides the kind-based classification:
	// the formatter supplied both the message and the field.
	if f.Formatter != nil {
		return append(records, ErrorRecord{
			Exception: ExcInvalidCustomFormatterValue,
			Message:   f.Formatter.Error(),
			Field:     f.Formatter.Field,
		})
	}

	rec := ErrorRecord{Message: f.Message}
	switch f.Kind {
	case KindMissingParameter:
		rec.Exception = ExcMissingRequiredParameter
		rec.Field = f.field()
	case KindParameterCast:
		rec.Exception = ExcParameterValidationError
		rec.Field = f.field()
	case KindSchemaValidation:
		rec.Exception = ExcValidationError
		rec.Field = f.field()
	case KindSecurityValidation:
		rec.Exception = ExcSecurityValidationError
	case KindDeserialization:
		rec.Exception = ExcRequestBodyValidationError
	default:
		rec.Exception = ExcValidationError
	}
	return append(records, rec)
}
