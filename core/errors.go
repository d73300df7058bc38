package core

import "github.com/pkg/errors"

// Error kinds. Wrap them with errors.Wrapf and match with errors.Is.
var (
	// ErrNotFound is returned when a node, resource or light name does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConfig marks setup and content bugs: missing GPU programs, bad
	// shaders, malformed scene files. Callers are expected to abort.
	ErrConfig = errors.New("configuration error")

	// ErrMemory marks allocator exhaustion.
	ErrMemory = errors.New("memory error")
)

// NotFound wraps ErrNotFound with the kind and name that failed to resolve.
func NotFound(kind, name string) error {
	return errors.Wrapf(ErrNotFound, "%s %q", kind, name)
}

// ConfigErrorf wraps ErrConfig with a formatted description.
func ConfigErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

// IsNotFound reports whether err is an identity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}
