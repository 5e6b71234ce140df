package services

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline failure kinds. Each one is caught at the per-file boundary by
// the analyzer and converted into a user-visible notice; none of them
// aborts a running batch.
var (
	ErrUnsupportedMediaType  = errors.New("unsupported media type")
	ErrBackendUnavailable    = errors.New("backend unavailable")
	ErrMalformedBackendReply = errors.New("malformed backend reply")
	ErrMissingCredential     = errors.New("no API key configured for selected backend")
	ErrVisionNotSupported    = errors.New("backend does not accept image input")
)

// SchemaValidationError reports a backend reply that parsed as JSON but
// lacks part of the required key set. A transport or parse failure is a
// different error; the two are never conflated.
type SchemaValidationError struct {
	MissingKeys []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("response missing required keys: %s", strings.Join(e.MissingKeys, ", "))
}
