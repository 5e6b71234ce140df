package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ImagePayload is one base64-bound image part of a vision request. MIME
// type comes from the file extension, generic octet-stream when unknown.
type ImagePayload struct {
	MIMEType string
	Data     []byte
}

// GradingBackend is implemented once per vendor. Every implementation is
// invoked with a directive to return strictly JSON-formatted content and
// makes exactly one attempt per call: no retry, no backoff, no caching.
type GradingBackend interface {
	Name() string
	SupportsVision() bool
	GradeText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GradeImages(ctx context.Context, systemPrompt, userPrompt string, images []ImagePayload) (string, error)
}

// BackendRegistry holds the configured backends. Vendors without a
// credential are never registered, so selecting one fails up front.
type BackendRegistry struct {
	backends map[string]GradingBackend
}

func NewBackendRegistry(backends ...GradingBackend) *BackendRegistry {
	registry := &BackendRegistry{
		backends: make(map[string]GradingBackend),
	}
	for _, backend := range backends {
		registry.backends[backend.Name()] = backend
	}
	return registry
}

func (r *BackendRegistry) Get(name string) (GradingBackend, error) {
	backend, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, name)
	}
	return backend, nil
}

// MIMETypeForFile derives a MIME type from the file extension.
func MIMETypeForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
