// Package rankedmap implements the (document, attribute) → Number map,
// serialized independently from the fstindex token/postings pair
// (grounded on original_source/meilidb-data/src/ranked_map.rs, which
// keeps its own HashMap<(DocumentId, SchemaAttr), Number> distinct from
// the word index for exactly this reason: ranking values are looked up
// by (doc, attr) during custom sort criteria, never walked
// token-by-token).
package rankedmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/number"
	"github.com/wizenheimer/lantern/schema"
)

// ErrVariantMismatch is returned when Put would introduce a Number whose
// variant disagrees with a value already recorded for that attribute: a
// ranked attribute must agree on Integer vs. Float across every document
// in the index.
var ErrVariantMismatch = errors.New("rankedmap: value variant disagrees with attribute's existing variant")

// ErrCorruption is returned when Decode cannot parse its input.
var ErrCorruption = errors.New("rankedmap: corrupt data")

type key struct {
	doc  docid.ID
	attr schema.Attr
}

// RankedMap is an immutable (document id, attribute) → Number lookup table.
// Callers build one incrementally via Builder, then freeze it with Build.
type RankedMap struct {
	values   map[key]number.Number
	variants map[schema.Attr]number.Variant
}

// Builder accumulates Put calls before producing a frozen RankedMap.
type Builder struct {
	values   map[key]number.Number
	variants map[schema.Attr]number.Variant
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		values:   make(map[key]number.Number),
		variants: make(map[schema.Attr]number.Variant),
	}
}

// Put records the ranking value for (doc, attr). It rejects a value whose
// variant disagrees with any previously-put value for the same attribute.
func (b *Builder) Put(doc docid.ID, attr schema.Attr, value number.Number) error {
	if existing, ok := b.variants[attr]; ok && existing != value.Variant() {
		return fmt.Errorf("%w: attribute %d", ErrVariantMismatch, attr)
	}
	b.variants[attr] = value.Variant()
	b.values[key{doc: doc, attr: attr}] = value
	return nil
}

// Build freezes the Builder into a RankedMap.
func (b *Builder) Build() *RankedMap {
	values := make(map[key]number.Number, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	variants := make(map[schema.Attr]number.Variant, len(b.variants))
	for a, v := range b.variants {
		variants[a] = v
	}
	return &RankedMap{values: values, variants: variants}
}

// Get returns the ranking value for (doc, attr), if one exists.
func (rm *RankedMap) Get(doc docid.ID, attr schema.Attr) (number.Number, bool) {
	v, ok := rm.values[key{doc: doc, attr: attr}]
	return v, ok
}

// WithRemovedDocuments returns a copy of rm with every entry whose
// document id satisfies removed dropped.
func (rm *RankedMap) WithRemovedDocuments(removed func(docid.ID) bool) *RankedMap {
	b := NewBuilder()
	for k, v := range rm.values {
		if removed(k.doc) {
			continue
		}
		b.variants[k.attr] = rm.variants[k.attr]
		b.values[k] = v
	}
	return b.Build()
}

// Merge folds other into rm: entries in other overwrite entries in rm
// for the same (doc, attr) pair. A variant mismatch between rm and other for the same
// attribute is an error, since it would make the resulting map
// inconsistent for sort comparisons.
func (rm *RankedMap) Merge(other *RankedMap) (*RankedMap, error) {
	b := NewBuilder()
	for k, v := range rm.values {
		b.variants[k.attr] = rm.variants[k.attr]
		b.values[k] = v
	}
	for k, v := range other.values {
		if existing, ok := b.variants[k.attr]; ok && existing != v.Variant() {
			return nil, fmt.Errorf("%w: attribute %d", ErrVariantMismatch, k.attr)
		}
		b.variants[k.attr] = v.Variant()
		b.values[k] = v
	}
	return b.Build(), nil
}

// Len returns the number of (doc, attr) entries.
func (rm *RankedMap) Len() int {
	return len(rm.values)
}

// sortedKeys returns rm's keys in a deterministic order, for Encode.
func (rm *RankedMap) sortedKeys() []key {
	keys := make([]key, 0, len(rm.values))
	for k := range rm.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].doc != keys[j].doc {
			return keys[i].doc < keys[j].doc
		}
		return keys[i].attr < keys[j].attr
	})
	return keys
}

const formatVersion = 1

// Encode serializes rm independently of any fstindex.Index, per
// ranked_map.rs's own (de)serialize methods: version byte, entry count,
// then for each entry (doc id, attr, variant tag, payload).
func (rm *RankedMap) Encode() []byte {
	keys := rm.sortedKeys()
	out := make([]byte, 0, 1+8+len(keys)*19)
	out = append(out, formatVersion)
	out = appendUint64(out, uint64(len(keys)))
	for _, k := range keys {
		v := rm.values[k]
		out = appendUint64(out, uint64(k.doc))
		out = appendUint16(out, uint16(k.attr))
		out = append(out, byte(v.Variant()))
		switch v.Variant() {
		case number.VariantInteger:
			out = appendUint64(out, uint64(v.Int64()))
		default:
			out = appendUint64(out, math.Float64bits(v.Float64()))
		}
	}
	return out
}

// Decode parses a RankedMap from the layout Encode writes.
func Decode(data []byte) (*RankedMap, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty data", ErrCorruption)
	}
	if data[0] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruption, data[0])
	}
	data = data[1:]

	count, data, err := takeUint64(data)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	for i := uint64(0); i < count; i++ {
		var docRaw, attrRaw, payload uint64
		if docRaw, data, err = takeUint64(data); err != nil {
			return nil, err
		}
		if attrRaw, data, err = takeUint16(data); err != nil {
			return nil, err
		}
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: truncated variant tag", ErrCorruption)
		}
		variant := number.Variant(data[0])
		data = data[1:]
		if payload, data, err = takeUint64(data); err != nil {
			return nil, err
		}

		var n number.Number
		switch variant {
		case number.VariantInteger:
			n = number.Int(int64(payload))
		case number.VariantFloat:
			n = number.Flt(math.Float64frombits(payload))
		default:
			return nil, fmt.Errorf("%w: unknown variant tag %d", ErrCorruption, variant)
		}
		if err := b.Put(docid.ID(docRaw), schema.Attr(attrRaw), n); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func takeUint64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, fmt.Errorf("%w: truncated uint64", ErrCorruption)
	}
	return binary.LittleEndian.Uint64(b[:8]), b[8:], nil
}

func takeUint16(b []byte) (uint64, []byte, error) {
	if len(b) < 2 {
		return 0, nil, fmt.Errorf("%w: truncated uint16", ErrCorruption)
	}
	return uint64(binary.LittleEndian.Uint16(b[:2])), b[2:], nil
}
