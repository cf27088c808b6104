// Package value provides the JSON value model shared by the chart codec,
// the message stream and the persistence layer.
//
// Every document the module emits goes through MarshalCanonical so that
// identical chart states produce byte-identical output:
//   - Object keys sorted by UTF-16 code units
//   - Strings NFC normalized, no HTML escaping
//   - Floats always carry a fraction or exponent; NaN and Inf are rejected
//
// value imports nothing internal.
package value
