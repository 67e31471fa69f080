package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// JSON returns a codec that stores values as JSON documents.
// Size has to marshal the value, so a Put encodes a JSON value twice.
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}

// Gob returns a codec that stores values in Go's gob format. Every stored value is a
// self-contained gob stream including its type description, which makes gob
// values considerably larger than JSON or Record encodings.
func Gob[T any]() Codec[T] {
	return gobCodec[T]{}
}

// --------------------------------------------------------------------------
// JSON
// --------------------------------------------------------------------------

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Append(dst []byte, v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

func (jsonCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

func (jsonCodec[T]) Size(v T) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}

// --------------------------------------------------------------------------
// GOB
// --------------------------------------------------------------------------

type gobCodec[T any] struct{}

func (gobCodec[T]) encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobCodec[T]) Append(dst []byte, v T) ([]byte, error) {
	b, err := g.encode(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

func (gobCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v)
	return v, err
}

func (g gobCodec[T]) Size(v T) int {
	b, err := g.encode(v)
	if err != nil {
		return 0
	}
	return len(b)
}
