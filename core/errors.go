package core

import "github.com/pkg/errors"

var (
	// ErrUnsupportedFormat means the input is not a container the engine
	// understands. Callers may still offer the raw bytes unchanged.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedContainer means a length, marker, or offset did not agree
	// with the container grammar. Extraction and cleaning both abort.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrInvalidCoordinate means a GPS value could not be resolved. Only the
	// coordinate is dropped; the rest of the extraction stands.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Malformed wraps ErrMalformedContainer with the offset that broke the walk.
func Malformed(kind ContainerKind, offset int, format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedContainer, "%s at offset %d: "+format, append([]interface{}{kind, offset}, args...)...)
}
