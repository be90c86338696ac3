// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Recognition constants
const (
	// EmbeddingDim is the length of the face descriptors produced by the
	// embedding provider. All enrolled embeddings and queries must match it.
	EmbeddingDim = 128

	// DefaultMatchThreshold is the default maximum Euclidean distance for a
	// gallery candidate to be accepted as a match.
	// Lower values = stricter matching.
	DefaultMatchThreshold = 0.6

	// GalleryIndexMinSize is the gallery size above which the in-memory HNSW
	// index is consulted to shortlist candidates before exact resolution.
	// Below this, a full linear scan is cheaper than maintaining the index.
	GalleryIndexMinSize = 256

	// GalleryShortlistSize is the number of nearest candidates fetched from
	// the index (or pgvector) before the exact re-rank.
	GalleryShortlistSize = 16
)

// Attendance constants
const (
	// DefaultTimezone is the organizational reference timezone used to derive
	// the civil day of a session from a timestamp.
	DefaultTimezone = "Asia/Kolkata"
)

// Web constants
const (
	// MaxUploadSize is the maximum accepted capture upload in bytes.
	MaxUploadSize = 10 << 20

	// DefaultListLimit is the default page size for attendance listings.
	DefaultListLimit = 500
)

// Image constants
const (
	// MaxImageSize is the maximum dimension (width or height) sent to the
	// embedding provider. Larger captures are downscaled first.
	MaxImageSize = 1280
)
