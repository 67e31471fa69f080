package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer is returned by Decode if the input is shorter than the encoding needs.
	ErrShortBuffer = errors.New("codec: buffer too short")

	// ErrInvalidLength is returned by Decode if a fixed-width input has trailing bytes.
	ErrInvalidLength = errors.New("codec: invalid encoded length")
)

// Codec converts values of type V to and from their log representation.
//
// Size must return exactly the number of bytes Append adds for the same value
// (the logical size). The log has no per-record headers, so the logical size is
// the only record boundary a database ever stores.
type Codec[V any] interface {
	// Append appends the encoding of v to dst and returns the extended slice.
	Append(dst []byte, v V) ([]byte, error)
	// Decode decodes a value from exactly b.
	Decode(b []byte) (V, error)
	// Size returns the logical size of v.
	Size(v V) int
}

// Encode returns the encoding of v as a new slice.
func Encode[V any](c Codec[V], v V) ([]byte, error) {
	return c.Append(make([]byte, 0, c.Size(v)), v)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// checkLen validates the length of a fixed-width encoding
func checkLen(b []byte, width int) error {
	switch {
	case len(b) < width:
		return fmt.Errorf("%w: need %d bytes, got %d", ErrShortBuffer, width, len(b))
	case len(b) > width:
		return fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidLength, width, len(b))
	}
	return nil
}
