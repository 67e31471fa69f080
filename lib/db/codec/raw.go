package codec

// String stores the raw bytes of a string. There is no length prefix,
// the length of a stored string is its logical size.
var String Codec[string] = stringCodec{}

// Bytes stores a byte slice as is. Decode returns a copy of its input.
var Bytes Codec[[]byte] = bytesCodec{}

type stringCodec struct{}

func (stringCodec) Append(dst []byte, v string) ([]byte, error) { return append(dst, v...), nil }
func (stringCodec) Decode(b []byte) (string, error)              { return string(b), nil }
func (stringCodec) Size(v string) int                            { return len(v) }

type bytesCodec struct{}

func (bytesCodec) Append(dst []byte, v []byte) ([]byte, error) { return append(dst, v...), nil }
func (bytesCodec) Size(v []byte) int                           { return len(v) }

func (bytesCodec) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
