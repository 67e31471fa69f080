package codec

import (
	"encoding/binary"
	"math"
)

// fixedCodec encodes a scalar with its natural width in native byte order
type fixedCodec[T any] struct {
	width int
	put   func(b []byte, v T)
	get   func(b []byte) T
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (c fixedCodec[T]) Append(dst []byte, v T) ([]byte, error) {
	n := len(dst)
	dst = append(dst, make([]byte, c.width)...)
	c.put(dst[n:], v)
	return dst, nil
}

func (c fixedCodec[T]) Decode(b []byte) (T, error) {
	if err := checkLen(b, c.width); err != nil {
		var zero T
		return zero, err
	}
	return c.get(b), nil
}

func (c fixedCodec[T]) Size(T) int {
	return c.width
}

// --------------------------------------------------------------------------
// Scalar Codecs
// --------------------------------------------------------------------------

var ne = binary.NativeEndian

var (
	Int8 Codec[int8] = fixedCodec[int8]{
		width: 1,
		put:   func(b []byte, v int8) { b[0] = byte(v) },
		get:   func(b []byte) int8 { return int8(b[0]) },
	}
	Int16 Codec[int16] = fixedCodec[int16]{
		width: 2,
		put:   func(b []byte, v int16) { ne.PutUint16(b, uint16(v)) },
		get:   func(b []byte) int16 { return int16(ne.Uint16(b)) },
	}
	Int32 Codec[int32] = fixedCodec[int32]{
		width: 4,
		put:   func(b []byte, v int32) { ne.PutUint32(b, uint32(v)) },
		get:   func(b []byte) int32 { return int32(ne.Uint32(b)) },
	}
	Int64 Codec[int64] = fixedCodec[int64]{
		width: 8,
		put:   func(b []byte, v int64) { ne.PutUint64(b, uint64(v)) },
		get:   func(b []byte) int64 { return int64(ne.Uint64(b)) },
	}
	Uint8 Codec[uint8] = fixedCodec[uint8]{
		width: 1,
		put:   func(b []byte, v uint8) { b[0] = v },
		get:   func(b []byte) uint8 { return b[0] },
	}
	Uint16 Codec[uint16] = fixedCodec[uint16]{
		width: 2,
		put:   func(b []byte, v uint16) { ne.PutUint16(b, v) },
		get:   func(b []byte) uint16 { return ne.Uint16(b) },
	}
	Uint32 Codec[uint32] = fixedCodec[uint32]{
		width: 4,
		put:   func(b []byte, v uint32) { ne.PutUint32(b, v) },
		get:   func(b []byte) uint32 { return ne.Uint32(b) },
	}
	Uint64 Codec[uint64] = fixedCodec[uint64]{
		width: 8,
		put:   func(b []byte, v uint64) { ne.PutUint64(b, v) },
		get:   func(b []byte) uint64 { return ne.Uint64(b) },
	}
	Float32 Codec[float32] = fixedCodec[float32]{
		width: 4,
		put:   func(b []byte, v float32) { ne.PutUint32(b, math.Float32bits(v)) },
		get:   func(b []byte) float32 { return math.Float32frombits(ne.Uint32(b)) },
	}
	Float64 Codec[float64] = fixedCodec[float64]{
		width: 8,
		put:   func(b []byte, v float64) { ne.PutUint64(b, math.Float64bits(v)) },
		get:   func(b []byte) float64 { return math.Float64frombits(ne.Uint64(b)) },
	}
	Bool Codec[bool] = fixedCodec[bool]{
		width: 1,
		put: func(b []byte, v bool) {
			if v {
				b[0] = 1
			} else {
				b[0] = 0
			}
		},
		get: func(b []byte) bool { return b[0] != 0 },
	}
)
