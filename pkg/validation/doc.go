// Package validation checks HTTP requests and responses against an OpenAPI 3
// document and reports every contract violation as a flat, ordered list of
// error records.
//
// A Validator is built from a loaded openapi3 document and optional
// Registries of custom format validators and body deserializers. Middleware
// wraps an http.Handler so that non-conforming requests are rejected with a
// 400 (401 when only security requirements failed) and non-conforming
// responses are replaced with a 500, each carrying a JSON array of records
// shaped {"exception", "message", "field"}.
package validation
