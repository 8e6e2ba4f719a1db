// Package store implements a badger-backed key-value binding: document
// attribute storage keyed by (document id, attribute), plus three
// reserved singleton keys for the index's FST, ranked map, and schema.
// Grounded on other_examples/outserv's use of badger as the backing
// store for posting-list data (a2a75205_
// AkbarTrilaksana-outserv__posting-index.go.go) — outserv uses a forked
// badger API for streaming rebuilds; this package uses the canonical
// dgraph-io/badger/v4 API instead. A batch's ordered removed/updated
// write events are folded against the committed state inside one
// serialized read-modify-write transaction (badger's per-key
// MergeOperator requires an associative merge function, which the
// ordered operand pair is not).
package store

import (
	"encoding/binary"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/schema"
)

const (
	keyKindReservedIndex byte = iota
	keyKindReservedRankedMap
	keyKindReservedSchema
	keyKindDocument
	keyKindDocumentAttr
)

// indexKey is the reserved singleton key holding the committed
// fstindex.Index.
var indexKey = []byte{keyKindReservedIndex}

// rankedMapKey is the reserved singleton key holding the committed
// rankedmap.RankedMap.
var rankedMapKey = []byte{keyKindReservedRankedMap}

// schemaKey is the reserved singleton key holding the index's schema.
var schemaKey = []byte{keyKindReservedSchema}

// DocumentKey encodes the key under which a document's full stored-field
// set is kept.
func DocumentKey(id docid.ID) []byte {
	key := make([]byte, 9)
	key[0] = keyKindDocument
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}

// DocumentKeyAttr encodes the key for one stored attribute's value within
// a document. Keys are big-endian so that badger's lexicographic key
// ordering also orders documents by id, letting a prefix scan over
// DocumentKey(id) enumerate all of a document's attributes together.
func DocumentKeyAttr(id docid.ID, attr schema.Attr) []byte {
	key := make([]byte, 11)
	key[0] = keyKindDocumentAttr
	binary.BigEndian.PutUint64(key[1:9], uint64(id))
	binary.BigEndian.PutUint16(key[9:], uint16(attr))
	return key
}

// DocumentPrefix returns the key prefix shared by every DocumentKeyAttr
// of id, for prefix-scanning a document's full set of stored attributes.
func DocumentPrefix(id docid.ID) []byte {
	prefix := make([]byte, 9)
	prefix[0] = keyKindDocumentAttr
	binary.BigEndian.PutUint64(prefix[1:], uint64(id))
	return prefix
}
