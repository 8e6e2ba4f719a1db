// Package postings defines the DocIndex posting tuple and the
// sort/dedup helpers the FST index and the raw update builder share.
package postings

import (
	"sort"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/schema"
)

// DocIndex records one occurrence of a token in one document attribute.
// WordIndex is the zero-based ordinal of the token within its
// attribute after stop-word filtering; CharIndex/CharLength are Unicode
// scalar positions within the original attribute text.
type DocIndex struct {
	DocumentID docid.ID
	Attribute  schema.Attr
	WordIndex  uint16
	CharIndex  uint16
	CharLength uint16
}

// Less orders two DocIndex tuples by (document_id, attribute, word_index),
// the ordering a token's posting slice is kept in.
func Less(a, b DocIndex) bool {
	if a.DocumentID != b.DocumentID {
		return a.DocumentID < b.DocumentID
	}
	if a.Attribute != b.Attribute {
		return a.Attribute < b.Attribute
	}
	return a.WordIndex < b.WordIndex
}

// Equal reports whether two DocIndex tuples are identical in every field.
func Equal(a, b DocIndex) bool {
	return a == b
}

// SortAndDedup sorts postings by (document_id, attribute, word_index) and
// removes exact duplicates in place, returning the trimmed slice. Each
// token's posting slice is kept sorted and strictly ascending.
func SortAndDedup(postings []DocIndex) []DocIndex {
	if len(postings) < 2 {
		return postings
	}
	sort.Slice(postings, func(i, j int) bool { return Less(postings[i], postings[j]) })
	out := postings[:1]
	for _, p := range postings[1:] {
		if !Equal(out[len(out)-1], p) {
			out = append(out, p)
		}
	}
	return out
}

// MergeSorted sort-merges two already-sorted, deduplicated posting slices
// into one sorted, deduplicated slice. This is the per-token step of
// merging a staged batch's index into the base index.
func MergeSorted(a, b []DocIndex) []DocIndex {
	out := make([]DocIndex, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case Equal(a[i], b[j]):
			out = append(out, a[i])
			i++
			j++
		case Less(a[i], b[j]):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// FilterRemoved returns postings with every tuple whose DocumentID is in
// removed dropped, preserving order. Used when applying a removal
// operand to the base index.
func FilterRemoved(postings []DocIndex, removed func(docid.ID) bool) []DocIndex {
	out := postings[:0:0]
	for _, p := range postings {
		if !removed(p.DocumentID) {
			out = append(out, p)
		}
	}
	return out
}
