package embedding

import (
	"context"
	"errors"
)

// Extraction errors surfaced to callers. Handlers map these to request-level
// failures rather than server faults.
var (
	// ErrNoFaceFound means the extractor ran but detected no face.
	ErrNoFaceFound = errors.New("no face found in image")
	// ErrMultipleFaces means more than one face was detected; enrollment and
	// identification both require exactly one.
	ErrMultipleFaces = errors.New("multiple faces found in image")
	// ErrProviderUnavailable means the extractor backend could not be reached
	// or is not ready.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)

// Provider extracts a face embedding from a captured image. Implementations
// are expected to be safe for concurrent use once Open has returned.
type Provider interface {
	Name() string
	// Open verifies the backend is reachable and ready. It must be called
	// before ExtractFace; a Provider reports readiness per instance instead
	// of through process-global state.
	Open(ctx context.Context) error
	// ExtractFace returns the embedding of the single face in the image.
	ExtractFace(ctx context.Context, imageData []byte) ([]float32, error)
	Close() error
}
