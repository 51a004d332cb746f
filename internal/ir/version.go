package ir

// Version constants for identity encoding and the module.
const (
	// FormatVersion is the version of the canonical shape encoding.
	// Bumping it changes every ShapeID and invalidates compiled caches.
	FormatVersion = "1"

	// Version is the SeeQ release version.
	Version = "0.1.0"
)
