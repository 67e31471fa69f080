// Package codec converts typed values to and from the bytes stored in a database log.
//
// A database built on this package never inspects values. Every store is created with a
// Codec[V] that provides three operations: Append (encode), Decode and Size (the logical
// size, i.e. the exact number of encoded bytes). Scalars, strings and user-defined records
// all implement this one interface, so the database has a single write and read path for
// all value types.
//
// Available codecs:
//
//   - Fixed-width scalars (Int8 ... Int64, Uint8 ... Uint64, Float32, Float64, Bool):
//     encoded with their natural width in native byte order. Decoding a buffer of any
//     other length fails with ErrShortBuffer or ErrInvalidLength.
//
//   - String and Bytes: the raw bytes without a length prefix. The length of a value
//     is only known from its logical size, which the database keeps in its index.
//
//   - RecordOf[T]: user-defined composite values implementing Record (value receiver)
//     and DecodeRecord (pointer receiver). The Reader type and the Append* helpers
//     make fixed-width fields easy to write and read; a single variable-length field
//     can be stored last and read with Reader.Rest.
//
//   - JSON[T] and Gob[T]: generic codecs for any type supported by encoding/json or
//     encoding/gob. Both have to encode a value to learn its size.
//
// Thread Safety:
//
//	All codecs are stateless and safe for concurrent use.
//
// Example (record type):
//
//	type Person struct {
//		Age    int32
//		Height float64
//		Name   string
//	}
//
//	func (p Person) LogicalSize() int { return 4 + 8 + len(p.Name) }
//
//	func (p Person) AppendRecord(dst []byte) []byte {
//		dst = codec.AppendInt32(dst, p.Age)
//		dst = codec.AppendFloat64(dst, p.Height)
//		return append(dst, p.Name...)
//	}
//
//	func (p *Person) DecodeRecord(b []byte) error {
//		r := codec.NewReader(b)
//		p.Age, p.Height, p.Name = r.Int32(), r.Float64(), string(r.Rest())
//		return r.Err()
//	}
package codec
