// Package codec converts application values to and from wire bytes.
package codec

import (
	"encoding/json"
	"strconv"

	"github.com/c360/submux/errors"
)

// Codec is the encode/decode pair applied to every published and received
// payload.
type Codec interface {
	// Encode serializes a value to wire bytes.
	Encode(value any) ([]byte, error)

	// Decode deserializes wire bytes back to a value. Callers treat a
	// decode error as recoverable: the registry falls back to delivering
	// the raw bytes.
	Decode(data []byte) (any, error)
}

// EncodeFunc is a caller-supplied serializer.
type EncodeFunc func(value any) ([]byte, error)

// DecodeFunc is a caller-supplied deserializer.
type DecodeFunc func(data []byte) (any, error)

// Reviver is a per-key decode hook applied bottom-up over the decoded value
// tree, child keys before their parents and the root last under the key "".
// It mirrors the reviver argument of a JSON parse: object members see their
// member name, array elements see their index as a decimal string, and the
// hook returns the value unchanged to keep it or a replacement.
type Reviver func(key string, value any) any

// New assembles a codec from the optional customization points: a custom
// serializer, a custom deserializer, and a reviver. Either function may be
// nil to keep the JSON default for that direction. A deserializer and a
// reviver are mutually exclusive because both claim the decode side; asking
// for both is a configuration error.
func New(encode EncodeFunc, decode DecodeFunc, reviver Reviver) (Codec, error) {
	if decode != nil && reviver != nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "codec", "New",
			"configure both a deserializer and a reviver")
	}

	jsonc := NewJSON()
	if reviver != nil {
		jsonc = NewJSONWithReviver(reviver)
	}
	if encode == nil && decode == nil {
		return jsonc, nil
	}
	return &FuncCodec{encode: encode, decode: decode, json: jsonc}, nil
}

// JSONCodec is the default codec: encoding/json both ways, with an optional
// reviver applied after decode.
type JSONCodec struct {
	reviver Reviver
}

// NewJSON creates the default JSON codec.
func NewJSON() *JSONCodec {
	return &JSONCodec{}
}

// NewJSONWithReviver creates a JSON codec that runs r over every decoded
// value tree.
func NewJSONWithReviver(r Reviver) *JSONCodec {
	return &JSONCodec{reviver: r}
}

// Encode serializes value as JSON.
func (c *JSONCodec) Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.WrapInvalid(err, "JSONCodec", "Encode", "marshal value")
	}
	return data, nil
}

// Decode deserializes JSON into the generic value types (map[string]any,
// []any, string, float64, bool, nil) and applies the reviver if configured.
func (c *JSONCodec) Decode(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, errors.WrapInvalid(err, "JSONCodec", "Decode", "unmarshal payload")
	}
	if c.reviver != nil {
		value = revive(c.reviver, "", value)
	}
	return value, nil
}

// revive walks the value tree depth-first so children are revived before the
// container that holds them, then applies r to the container itself.
func revive(r Reviver, key string, value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, elem := range v {
			v[k] = revive(r, k, elem)
		}
	case []any:
		for i, elem := range v {
			v[i] = revive(r, strconv.Itoa(i), elem)
		}
	}
	return r(key, value)
}

// FuncCodec adapts caller-supplied encode/decode functions into a Codec.
// A nil function falls back to the JSON default for that direction.
type FuncCodec struct {
	encode EncodeFunc
	decode DecodeFunc
	json   *JSONCodec
}

// NewFunc creates a codec from the given functions. Either may be nil.
func NewFunc(encode EncodeFunc, decode DecodeFunc) *FuncCodec {
	return &FuncCodec{encode: encode, decode: decode, json: NewJSON()}
}

// Encode serializes with the custom serializer, or JSON if none was given.
func (c *FuncCodec) Encode(value any) ([]byte, error) {
	if c.encode == nil {
		return c.json.Encode(value)
	}
	data, err := c.encode(value)
	if err != nil {
		return nil, errors.WrapInvalid(err, "FuncCodec", "Encode", "serialize value")
	}
	return data, nil
}

// Decode deserializes with the custom deserializer, or JSON if none was given.
func (c *FuncCodec) Decode(data []byte) (any, error) {
	if c.decode == nil {
		return c.json.Decode(data)
	}
	value, err := c.decode(data)
	if err != nil {
		return nil, errors.WrapInvalid(err, "FuncCodec", "Decode", "deserialize payload")
	}
	return value, nil
}
