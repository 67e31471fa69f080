package codec

import (
	"fmt"
	"math"
)

// Record is implemented by user-defined composite values that encode themselves.
// LogicalSize must equal the number of bytes AppendRecord appends.
type Record interface {
	AppendRecord(dst []byte) []byte
	LogicalSize() int
}

// RecordPtr is the pointer side of a Record: it decodes a value in place.
type RecordPtr[T any] interface {
	*T
	DecodeRecord(b []byte) error
}

// RecordOf returns a codec for a user-defined record type, e.g.
//
//	people := codec.RecordOf[Person]()
//
// where Person implements Record and *Person implements DecodeRecord.
func RecordOf[T Record, PT RecordPtr[T]]() Codec[T] {
	return recordCodec[T, PT]{}
}

type recordCodec[T Record, PT RecordPtr[T]] struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (recordCodec[T, PT]) Append(dst []byte, v T) ([]byte, error) {
	return v.AppendRecord(dst), nil
}

func (recordCodec[T, PT]) Decode(b []byte) (T, error) {
	var v T
	if err := PT(&v).DecodeRecord(b); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

func (recordCodec[T, PT]) Size(v T) int {
	return v.LogicalSize()
}

// --------------------------------------------------------------------------
// Field Helpers for Record implementations
// --------------------------------------------------------------------------

// AppendInt32 appends v in native byte order
func AppendInt32(dst []byte, v int32) []byte { return ne.AppendUint32(dst, uint32(v)) }

// AppendInt64 appends v in native byte order
func AppendInt64(dst []byte, v int64) []byte { return ne.AppendUint64(dst, uint64(v)) }

// AppendUint32 appends v in native byte order
func AppendUint32(dst []byte, v uint32) []byte { return ne.AppendUint32(dst, v) }

// AppendUint64 appends v in native byte order
func AppendUint64(dst []byte, v uint64) []byte { return ne.AppendUint64(dst, v) }

// AppendFloat64 appends v in native byte order
func AppendFloat64(dst []byte, v float64) []byte {
	return ne.AppendUint64(dst, math.Float64bits(v))
}

// Reader reads fixed-width fields from an encoded record. The first failed
// read is remembered, all later reads return zero values; check Err once at the end.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader returns a Reader over b
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.pos < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.pos, len(r.buf)-r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Int32() int32 {
	if b := r.next(4); b != nil {
		return int32(ne.Uint32(b))
	}
	return 0
}

func (r *Reader) Int64() int64 {
	if b := r.next(8); b != nil {
		return int64(ne.Uint64(b))
	}
	return 0
}

func (r *Reader) Uint32() uint32 {
	if b := r.next(4); b != nil {
		return ne.Uint32(b)
	}
	return 0
}

func (r *Reader) Uint64() uint64 {
	if b := r.next(8); b != nil {
		return ne.Uint64(b)
	}
	return 0
}

func (r *Reader) Float64() float64 {
	if b := r.next(8); b != nil {
		return math.Float64frombits(ne.Uint64(b))
	}
	return 0
}

// Bytes returns the next n bytes (not copied)
func (r *Reader) Bytes(n int) []byte {
	return r.next(n)
}

// Rest returns all remaining bytes (not copied). It is how a record reads its
// trailing variable-length field, whose length is implied by the logical size.
func (r *Reader) Rest() []byte {
	if r.err != nil {
		return nil
	}
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}

// Err returns the first error encountered
func (r *Reader) Err() error {
	return r.err
}
