package value

import "fmt"

// Field lookups used by the decoders. Each returns an error naming the key
// when it is missing or holds the wrong kind.

// Get returns the raw value under key.
func (obj Object) Get(key string) (Value, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	return v, nil
}

// GetString returns the string under key.
func (obj Object) GetString(key string) (string, error) {
	v, err := obj.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		return "", fieldKindError(key, "string", v)
	}
	return string(s), nil
}

// GetInt returns the integer under key.
func (obj Object) GetInt(key string) (int64, error) {
	v, err := obj.Get(key)
	if err != nil {
		return 0, err
	}
	return AsInt(v, key)
}

// GetFloat returns the number under key as float64. Integers are widened.
func (obj Object) GetFloat(key string) (float64, error) {
	v, err := obj.Get(key)
	if err != nil {
		return 0, err
	}
	return AsFloat(v, key)
}

// GetBool returns the boolean under key.
func (obj Object) GetBool(key string) (bool, error) {
	v, err := obj.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(Bool)
	if !ok {
		return false, fieldKindError(key, "bool", v)
	}
	return bool(b), nil
}

// GetArray returns the array under key.
func (obj Object) GetArray(key string) (Array, error) {
	v, err := obj.Get(key)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(Array)
	if !ok {
		return nil, fieldKindError(key, "array", v)
	}
	return arr, nil
}

// GetObject returns the object under key.
func (obj Object) GetObject(key string) (Object, error) {
	v, err := obj.Get(key)
	if err != nil {
		return nil, err
	}
	o, ok := v.(Object)
	if !ok {
		return nil, fieldKindError(key, "object", v)
	}
	return o, nil
}

// GetInts returns the array of integers under key.
func (obj Object) GetInts(key string) ([]int64, error) {
	arr, err := obj.GetArray(key)
	if err != nil {
		return nil, err
	}
	return AsInts(arr, key)
}

// TypeTag returns the "type" discriminator of obj, or "" when absent.
func (obj Object) TypeTag() string {
	s, ok := obj["type"].(String)
	if !ok {
		return ""
	}
	return string(s)
}

// AsInt converts v to int64. what names the value in errors.
func AsInt(v Value, what string) (int64, error) {
	n, ok := v.(Int)
	if !ok {
		return 0, fieldKindError(what, "int", v)
	}
	return int64(n), nil
}

// AsFloat converts a numeric v to float64.
func AsFloat(v Value, what string) (float64, error) {
	switch n := v.(type) {
	case Float:
		return float64(n), nil
	case Int:
		return float64(n), nil
	}
	return 0, fieldKindError(what, "number", v)
}

// AsInts converts an array of integers.
func AsInts(arr Array, what string) ([]int64, error) {
	out := make([]int64, len(arr))
	for i, elem := range arr {
		n, err := AsInt(elem, fmt.Sprintf("%s[%d]", what, i))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Ints builds an Array from integers.
func Ints(ns []int64) Array {
	arr := make(Array, len(ns))
	for i, n := range ns {
		arr[i] = Int(n)
	}
	return arr
}

func fieldKindError(key, want string, got Value) error {
	return fmt.Errorf("field %q: expected %s, got %s", key, want, KindOf(got))
}
