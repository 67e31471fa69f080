package codec_test

import (
	"math"
	"testing"

	"github.com/ValentinKolb/aKV/lib/db/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// person mirrors a typical user-defined record: two fixed-width fields followed by
// one variable-length field
type person struct {
	Age    int32
	Height float64
	Name   string
}

func (p person) LogicalSize() int { return 4 + 8 + len(p.Name) }

func (p person) AppendRecord(dst []byte) []byte {
	dst = codec.AppendInt32(dst, p.Age)
	dst = codec.AppendFloat64(dst, p.Height)
	return append(dst, p.Name...)
}

func (p *person) DecodeRecord(b []byte) error {
	r := codec.NewReader(b)
	p.Age = r.Int32()
	p.Height = r.Float64()
	p.Name = string(r.Rest())
	return r.Err()
}

// roundTrip checks decode(encode(v)) == v and size(v) == len(encode(v))
func roundTrip[V any](t *testing.T, c codec.Codec[V], values ...V) {
	t.Helper()
	for _, v := range values {
		b, err := codec.Encode(c, v)
		require.NoError(t, err)
		assert.Equal(t, c.Size(v), len(b), "logical size of %v", v)

		got, err := c.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Run("Int8", func(t *testing.T) { roundTrip(t, codec.Int8, 0, 1, -1, math.MinInt8, math.MaxInt8) })
	t.Run("Int16", func(t *testing.T) { roundTrip(t, codec.Int16, 0, -300, math.MinInt16, math.MaxInt16) })
	t.Run("Int32", func(t *testing.T) { roundTrip(t, codec.Int32, 0, 42, math.MinInt32, math.MaxInt32) })
	t.Run("Int64", func(t *testing.T) { roundTrip(t, codec.Int64, 0, -7, math.MinInt64, math.MaxInt64) })
	t.Run("Uint8", func(t *testing.T) { roundTrip(t, codec.Uint8, 0, 255) })
	t.Run("Uint16", func(t *testing.T) { roundTrip(t, codec.Uint16, 0, math.MaxUint16) })
	t.Run("Uint32", func(t *testing.T) { roundTrip(t, codec.Uint32, 0, math.MaxUint32) })
	t.Run("Uint64", func(t *testing.T) { roundTrip(t, codec.Uint64, 0, math.MaxUint64) })
	t.Run("Float32", func(t *testing.T) { roundTrip(t, codec.Float32, 0, 3.25, -1e10, math.MaxFloat32) })
	t.Run("Float64", func(t *testing.T) { roundTrip(t, codec.Float64, 0, math.Pi, -math.SmallestNonzeroFloat64) })
	t.Run("Bool", func(t *testing.T) { roundTrip(t, codec.Bool, true, false) })
	t.Run("String", func(t *testing.T) { roundTrip(t, codec.String, "", "hello", "ünïcödé ✓", string(make([]byte, 4096))) })
	t.Run("Bytes", func(t *testing.T) { roundTrip(t, codec.Bytes, []byte{}, []byte("world"), []byte{0, 1, 2, 255}) })
	t.Run("Record", func(t *testing.T) {
		roundTrip(t, codec.RecordOf[person](),
			person{},
			person{Age: 31, Height: 1.82, Name: "Ada"},
			person{Age: -1, Height: math.Inf(1), Name: "a much longer name with spaces"},
		)
	})
	t.Run("JSON", func(t *testing.T) {
		roundTrip(t, codec.JSON[person](), person{Age: 7, Height: 0.5, Name: "json"})
	})
	t.Run("Gob", func(t *testing.T) {
		roundTrip(t, codec.Gob[person](), person{Age: 7, Height: 0.5, Name: "gob"})
	})
}

func TestFixedWidth(t *testing.T) {
	widths := map[string]int{
		"Int8":    codec.Int8.Size(0),
		"Int16":   codec.Int16.Size(0),
		"Int32":   codec.Int32.Size(0),
		"Int64":   codec.Int64.Size(0),
		"Uint64":  codec.Uint64.Size(0),
		"Float32": codec.Float32.Size(0),
		"Float64": codec.Float64.Size(0),
		"Bool":    codec.Bool.Size(false),
	}
	expected := map[string]int{
		"Int8": 1, "Int16": 2, "Int32": 4, "Int64": 8,
		"Uint64": 8, "Float32": 4, "Float64": 8, "Bool": 1,
	}
	assert.Equal(t, expected, widths)
}

func TestDecodeWrongLength(t *testing.T) {
	_, err := codec.Int64.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, codec.ErrShortBuffer)

	_, err = codec.Int32.Decode(make([]byte, 5))
	assert.ErrorIs(t, err, codec.ErrInvalidLength)

	_, err = codec.Float64.Decode(nil)
	assert.ErrorIs(t, err, codec.ErrShortBuffer)

	// a record needs at least its fixed-width prefix
	_, err = codec.RecordOf[person]().Decode(make([]byte, 10))
	assert.ErrorIs(t, err, codec.ErrShortBuffer)
}

func TestAppendKeepsPrefix(t *testing.T) {
	prefix := []byte("prefix")
	b, err := codec.Int32.Append(append([]byte{}, prefix...), 7)
	require.NoError(t, err)
	assert.Equal(t, prefix, b[:len(prefix)])
	assert.Len(t, b, len(prefix)+4)

	v, err := codec.Int32.Decode(b[len(prefix):])
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestBytesDecodeCopies(t *testing.T) {
	in := []byte("abc")
	out, err := codec.Bytes.Decode(in)
	require.NoError(t, err)
	in[0] = 'X'
	assert.Equal(t, []byte("abc"), out)
}

func TestReader(t *testing.T) {
	var b []byte
	b = codec.AppendUint32(b, 9)
	b = codec.AppendInt64(b, -9)
	b = codec.AppendUint64(b, 1<<40)
	b = append(b, "tail"...)

	r := codec.NewReader(b)
	assert.Equal(t, uint32(9), r.Uint32())
	assert.Equal(t, int64(-9), r.Int64())
	assert.Equal(t, uint64(1<<40), r.Uint64())
	assert.Equal(t, []byte("ta"), r.Bytes(2))
	assert.Equal(t, []byte("il"), r.Rest())
	require.NoError(t, r.Err())

	// reading past the end is sticky
	assert.Zero(t, r.Int32())
	assert.ErrorIs(t, r.Err(), codec.ErrShortBuffer)
	assert.Nil(t, r.Rest())
}
