// Package docid computes a stable 64-bit document identifier from an
// index's designated identifier attribute.
//
// Uses github.com/cespare/xxhash/v2 for the digest: a deterministic,
// collision-resistant 64-bit hash of a byte string, stable across runs
// and processes. See DESIGN.md for the library choice.
package docid

import "github.com/cespare/xxhash/v2"

// ID is the 64-bit opaque document identifier.
type ID uint64

// FromBytes derives an ID from the raw UTF-8 bytes of an index's
// identifier attribute value. Equal inputs always yield equal ids.
func FromBytes(b []byte) ID {
	return ID(xxhash.Sum64(b))
}

// FromString is a convenience wrapper around FromBytes for string values.
func FromString(s string) ID {
	return ID(xxhash.Sum64String(s))
}
