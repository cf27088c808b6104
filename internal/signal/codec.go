package signal

import (
	"fmt"

	"github.com/roach88/sseqchart/internal/value"
)

const (
	mapTag  = "SignalDict"
	listTag = "SignalList"
)

// Encode converts a container or plain Go value to its JSON form.
// Maps are tagged "SignalDict" and lists "SignalList".
func Encode(v any) (value.Value, error) {
	switch val := v.(type) {
	case *Map:
		entries := make(value.Object, len(val.entries))
		for k, elem := range val.entries {
			enc, err := Encode(elem)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			entries[k] = enc
		}
		return value.Object{"type": value.String(mapTag), "entries": entries}, nil
	case *List:
		items := make(value.Array, len(val.items))
		for i, elem := range val.items {
			enc, err := Encode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = enc
		}
		return value.Object{"type": value.String(listTag), "list": items}, nil
	case []any:
		items := make(value.Array, len(val))
		for i, elem := range val {
			enc, err := Encode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = enc
		}
		return items, nil
	case map[string]any:
		obj := make(value.Object, len(val))
		for k, elem := range val {
			enc, err := Encode(elem)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			obj[k] = enc
		}
		return obj, nil
	default:
		return value.From(v)
	}
}

// Decode is the inverse of Encode. Scalars come back as string, int64,
// float64, bool or nil; untagged arrays and objects as []any and
// map[string]any.
func Decode(v value.Value) (any, error) {
	switch val := v.(type) {
	case value.Null:
		return nil, nil
	case value.String:
		return string(val), nil
	case value.Int:
		return int64(val), nil
	case value.Float:
		return float64(val), nil
	case value.Bool:
		return bool(val), nil
	case value.Array:
		out := make([]any, len(val))
		for i, elem := range val {
			dec, err := Decode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = dec
		}
		return out, nil
	case value.Object:
		switch val.TypeTag() {
		case mapTag:
			return DecodeMap(val)
		case listTag:
			arr, err := val.GetArray("list")
			if err != nil {
				return nil, err
			}
			items, err := Decode(arr)
			if err != nil {
				return nil, err
			}
			return NewList(items.([]any)...), nil
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			dec, err := Decode(elem)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = dec
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

// DecodeMap decodes a "SignalDict" object.
func DecodeMap(v value.Value) (*Map, error) {
	obj, ok := v.(value.Object)
	if !ok || obj.TypeTag() != mapTag {
		return nil, fmt.Errorf("expected %s object, got %s", mapTag, value.KindOf(v))
	}
	entries, err := obj.GetObject("entries")
	if err != nil {
		return nil, err
	}
	decoded := make(map[string]any, len(entries))
	for k, elem := range entries {
		dec, err := Decode(elem)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		decoded[k] = dec
	}
	return NewMap(decoded), nil
}
