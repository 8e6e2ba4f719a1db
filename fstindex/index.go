// Package fstindex implements the token dictionary + posting store pair:
// a finite-state transducer (FST) mapping tokens to an (offset, length)
// pair into a contiguous, sorted postings blob.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHY AN FST INSTEAD OF A HASH MAP?
// ═══════════════════════════════════════════════════════════════════════════════
// A hash map gives O(1) exact lookup but nothing else: no ordered
// iteration, no prefix enumeration, no typo tolerance. The query engine
// needs all three: exact lookup, prefix lookup, and typo-tolerant
// (DFA) lookup. The token dictionary is a minimized deterministic
// automaton instead — built once per batch with
// github.com/blevesearch/vellum and merged into the current
// generation's automaton on commit. Prefix and fuzzy (Levenshtein DFA)
// queries become automaton intersections instead of linear scans.
// ═══════════════════════════════════════════════════════════════════════════════
package fstindex

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/postings"
)

// ErrCorruption is returned when the on-disk representation cannot be
// parsed.
var ErrCorruption = errors.New("fstindex: corrupt index data")

// ErrIO wraps an underlying I/O failure surfaced while building or reading
// an Index.
var ErrIO = errors.New("fstindex: io error")

// Index is an immutable (fst, postings) pair. New Indices are
// produced by Build or by merging two existing Indices; an Index is never
// mutated in place.
type Index struct {
	fst      *vellum.FST
	fstBytes []byte // the serialized automaton fst was loaded from
	postings []postings.DocIndex
}

// Empty returns a valid Index with no tokens.
func Empty() (*Index, error) {
	return Build(nil)
}

// Build constructs a new Index from a map of token → (unsorted) postings.
// Each token's postings are sorted and deduplicated before being packed
// into the contiguous blob, and the FST is built by inserting keys in
// ascending byte order as vellum requires.
func Build(tokenPostings map[string][]postings.DocIndex) (*Index, error) {
	tokens := make([]string, 0, len(tokenPostings))
	for t := range tokenPostings {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	var blob []postings.DocIndex
	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new builder: %v", ErrIO, err)
	}

	for _, token := range tokens {
		list := postings.SortAndDedup(tokenPostings[token])
		if len(list) == 0 {
			continue
		}
		offset := uint64(len(blob))
		blob = append(blob, list...)
		length := uint64(len(list))
		if err := builder.Insert([]byte(token), packOffsetLength(offset, length)); err != nil {
			return nil, fmt.Errorf("%w: insert %q: %v", ErrIO, token, err)
		}
	}
	if err := builder.Close(); err != nil {
		return nil, fmt.Errorf("%w: close builder: %v", ErrIO, err)
	}

	fstBytes := buf.Bytes()
	fst, err := vellum.Load(fstBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: load fst: %v", ErrIO, err)
	}

	return &Index{fst: fst, fstBytes: fstBytes, postings: blob}, nil
}

func packOffsetLength(offset, length uint64) uint64 {
	return offset<<32 | (length & 0xFFFFFFFF)
}

func unpackOffsetLength(v uint64) (offset, length uint64) {
	return v >> 32, v & 0xFFFFFFFF
}

// Lookup performs an exact FST lookup, returning the token's posting
// slice.
func (idx *Index) Lookup(token string) ([]postings.DocIndex, bool, error) {
	v, exists, err := idx.fst.Get([]byte(token))
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %v", ErrCorruption, token, err)
	}
	if !exists {
		return nil, false, nil
	}
	offset, length := unpackOffsetLength(v)
	return idx.postings[offset : offset+length], true, nil
}

// TokenPostings pairs a token with its posting slice, returned by
// PrefixLookup and DFALookup.
type TokenPostings struct {
	Token    string
	Distance int // edit distance from the query token; 0 for PrefixLookup
	Postings []postings.DocIndex
}

// PrefixLookup enumerates every token accepting prefix as a byte prefix,
// in ascending token order.
func (idx *Index) PrefixLookup(prefix string) ([]TokenPostings, error) {
	start := []byte(prefix)
	end := prefixUpperBound(start)

	itr, err := idx.fst.Iterator(start, end)
	return idx.collectIterator(itr, err, func(string) int { return 0 })
}

// DFALookup enumerates tokens within maxEdits edit distance of token,
// intersecting the FST with a Levenshtein automaton of that radius.
// Results are in ascending token order with their exact edit distance
// from token.
func (idx *Index) DFALookup(token string, maxEdits int) ([]TokenPostings, error) {
	if maxEdits <= 0 {
		// Radius 0 is an exact lookup; skip the automaton machinery.
		list, ok, err := idx.Lookup(token)
		if err != nil || !ok {
			return nil, err
		}
		return []TokenPostings{{Token: token, Postings: list}}, nil
	}
	lb, err := levenshtein.NewLevenshteinAutomatonBuilder(uint8(maxEdits), false)
	if err != nil {
		return nil, fmt.Errorf("%w: levenshtein builder radius %d: %v", ErrIO, maxEdits, err)
	}
	dfa, err := lb.BuildDfa(token, uint8(maxEdits))
	if err != nil {
		return nil, fmt.Errorf("%w: build levenshtein automaton for %q: %v", ErrIO, token, err)
	}

	itr, err := idx.fst.Search(dfa, nil, nil)
	results, err := idx.collectIterator(itr, err, func(candidate string) int {
		return editDistance(token, candidate)
	})
	if err != nil {
		return nil, err
	}

	// Second line of defense: drop anything the automaton over-admitted.
	out := results[:0]
	for _, r := range results {
		if r.Distance <= maxEdits {
			out = append(out, r)
		}
	}
	return out, nil
}

func (idx *Index) collectIterator(itr *vellum.FSTIterator, err error, distanceOf func(string) int) ([]TokenPostings, error) {
	var out []TokenPostings
	for err == nil {
		keyBytes, v := itr.Current()
		token := string(keyBytes)
		offset, length := unpackOffsetLength(v)
		out = append(out, TokenPostings{
			Token:    token,
			Distance: distanceOf(token),
			Postings: idx.postings[offset : offset+length],
		})
		err = itr.Next()
	}
	if err != nil && !errors.Is(err, vellum.ErrIteratorDone) {
		return nil, fmt.Errorf("%w: iterate: %v", ErrCorruption, err)
	}
	return out, nil
}

// prefixUpperBound returns the smallest byte string that is strictly
// greater than every string having prefix as a prefix, or nil if no such
// bound exists (prefix is all 0xFF bytes).
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// RemovedFilter reports whether a document id has been removed.
type RemovedFilter func(docid.ID) bool

// WithRemovedDocuments returns a new Index with every DocIndex whose
// document id satisfies removed dropped, and any token whose postings
// become empty dropped from the FST entirely.
func (idx *Index) WithRemovedDocuments(removed RemovedFilter) (*Index, error) {
	all, err := idx.allEntries()
	if err != nil {
		return nil, err
	}
	filtered := make(map[string][]postings.DocIndex, len(all))
	for token, list := range all {
		kept := postings.FilterRemoved(list, removed)
		if len(kept) > 0 {
			filtered[token] = kept
		}
	}
	return Build(filtered)
}

// Merge returns a new Index holding the union of idx and other's tokens,
// sort-merging shared tokens' posting lists.
func (idx *Index) Merge(other *Index) (*Index, error) {
	base, err := idx.allEntries()
	if err != nil {
		return nil, err
	}
	incoming, err := other.allEntries()
	if err != nil {
		return nil, err
	}
	for token, list := range incoming {
		if existing, ok := base[token]; ok {
			base[token] = postings.MergeSorted(existing, list)
		} else {
			base[token] = list
		}
	}
	return Build(base)
}

// allEntries materializes the full token → postings map by walking the
// FST in order. Used by Merge/WithRemovedDocuments, which both need to
// rebuild the automaton from scratch — vellum has no incremental-mutation
// API.
func (idx *Index) allEntries() (map[string][]postings.DocIndex, error) {
	out := make(map[string][]postings.DocIndex)
	itr, err := idx.fst.Iterator(nil, nil)
	for err == nil {
		keyBytes, v := itr.Current()
		offset, length := unpackOffsetLength(v)
		list := make([]postings.DocIndex, length)
		copy(list, idx.postings[offset:offset+length])
		out[string(keyBytes)] = list
		err = itr.Next()
	}
	if err != nil && !errors.Is(err, vellum.ErrIteratorDone) {
		return nil, fmt.Errorf("%w: iterate: %v", ErrCorruption, err)
	}
	return out, nil
}

// Close releases resources held by the underlying FST. Indices built
// in-process hold no file handles, but Index values loaded from a
// memory-mapped store may; callers should Close an Index once no reader
// holds its view any longer.
func (idx *Index) Close() error {
	return idx.fst.Close()
}
