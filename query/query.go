// Package query implements the query engine: tokenize a query string,
// expand each token into typo-tolerant and (for the last token) prefix
// candidates, group candidates into per-document matches, rank them
// through a criterion pipeline (criteria.go), paginate, optionally apply
// a distinct filter, and materialize hits by reading each surviving
// document's stored attributes back from the store.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/postings"
	"github.com/wizenheimer/lantern/rankedmap"
	"github.com/wizenheimer/lantern/schema"
	"github.com/wizenheimer/lantern/tokenizer"
)

// ErrInvalidLimit is returned when a Query's Offset or Length is
// negative, or Length exceeds MaxLength.
var ErrInvalidLimit = errors.New("query: invalid limit")

// ErrCancelled is returned when the query's context is cancelled at one
// of the two checkpoints (before ranking, after pagination).
var ErrCancelled = errors.New("query: cancelled")

// Match records one token's hit within one document attribute.
type Match struct {
	Attribute  schema.Attr
	QueryIndex int
	Distance   int
	IsExact    bool
	WordIndex  uint16
	CharIndex  uint16
	CharLength uint16
}

// DocumentMatch is one candidate document and every Match it accumulated
// across the query's tokens.
type DocumentMatch struct {
	ID      docid.ID
	Matches []Match
}

// Query is one search request against an Engine.
type Query struct {
	Text                         string
	Offset                       int
	Length                       int
	RestrictSearchableAttributes map[schema.Attr]bool // nil means unrestricted
	AttributesToRetrieve         map[schema.Attr]bool // nil means every stored attribute
	DistinctAttribute            *schema.Attr
	Criteria                     []Criterion
}

// DefaultLength is used when a Query does not set Length.
const DefaultLength = 20

// MaxLength caps a Query's Length; anything beyond it is ErrInvalidLimit.
const MaxLength = 500

// StoredFieldReader reads back a surviving document's stored attribute
// values for hit materialization. The store package's *store.Store
// satisfies this via GetDocumentFields.
type StoredFieldReader interface {
	GetDocumentFields(id docid.ID) (map[schema.Attr]string, error)
}

// Hit is one materialized search result.
type Hit struct {
	ID         docid.ID
	Attributes map[schema.Attr]string
	Matches    []HitMatch
}

// HitMatch projects a Match to the attribute/span form returned to callers.
type HitMatch struct {
	Attribute schema.Attr
	Start     uint16
	Length    uint16
}

// Engine runs queries against a fixed Index/RankedMap/schema/stop-word
// combination plus a StoredFieldReader for hit materialization.
type Engine struct {
	Index  *fstindex.Index
	Ranked *rankedmap.RankedMap
	Schema *schema.Schema
	Stop   tokenizer.StopWords
	Stored StoredFieldReader
}

// Search runs q against the engine's current Index. ctx is consulted at
// two checkpoints, before ranking and after pagination; a cancelled
// context surfaces as ErrCancelled and the query's view is released.
func (e *Engine) Search(ctx context.Context, q Query) ([]Hit, error) {
	length := q.Length
	if length == 0 {
		length = DefaultLength
	}
	if q.Offset < 0 || length < 0 || length > MaxLength {
		return nil, fmt.Errorf("%w: offset %d length %d", ErrInvalidLimit, q.Offset, q.Length)
	}

	tokens := tokenizer.Collect(q.Text, e.Stop)
	if len(tokens) == 0 {
		return nil, nil
	}

	byDoc := make(map[docid.ID][]Match)
	for i, tok := range tokens {
		isLast := i == len(tokens)-1
		if err := e.expandToken(tok, i, isLast, q.RestrictSearchableAttributes, byDoc); err != nil {
			return nil, err
		}
	}

	matches := make([]DocumentMatch, 0, len(byDoc))
	for id, ms := range byDoc {
		matches = append(matches, DocumentMatch{ID: id, Matches: ms})
	}

	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	criteria := q.Criteria
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}
	sortMatches(matches, criteria, e.Ranked)

	paged := paginate(matches, q.Offset, length)

	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	if q.DistinctAttribute != nil {
		paged = e.distinctFilter(paged, *q.DistinctAttribute, length)
	}

	return e.materialize(paged, q.AttributesToRetrieve)
}

// expandToken looks up tok via the FST's typo-tolerant DFA search at the
// token's typo schedule, plus — for the final query token only — a
// prefix lookup, feeding every surviving posting into byDoc grouped by
// document id.
func (e *Engine) expandToken(tok tokenizer.Token, queryIndex int, isLast bool, restrict map[schema.Attr]bool, byDoc map[docid.ID][]Match) error {
	maxEdits := fstindex.TypoSchedule(len([]rune(tok.Text)))
	results, err := e.Index.DFALookup(tok.Text, maxEdits)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.Token] = true
		e.absorbPostings(r.Postings, queryIndex, r.Distance, r.Distance == 0, restrict, byDoc)
	}

	if isLast {
		prefixResults, err := e.Index.PrefixLookup(tok.Text)
		if err != nil {
			return err
		}
		for _, r := range prefixResults {
			// Tokens the DFA pass already admitted would otherwise
			// contribute the same postings twice.
			if seen[r.Token] {
				continue
			}
			e.absorbPostings(r.Postings, queryIndex, 0, false, restrict, byDoc)
		}
	}
	return nil
}

func (e *Engine) absorbPostings(list []postings.DocIndex, queryIndex, distance int, isExact bool, restrict map[schema.Attr]bool, byDoc map[docid.ID][]Match) {
	for _, p := range list {
		if restrict != nil && !restrict[p.Attribute] {
			continue
		}
		byDoc[p.DocumentID] = append(byDoc[p.DocumentID], Match{
			Attribute:  p.Attribute,
			QueryIndex: queryIndex,
			Distance:   distance,
			IsExact:    isExact,
			WordIndex:  p.WordIndex,
			CharIndex:  p.CharIndex,
			CharLength: p.CharLength,
		})
	}
}

func paginate(matches []DocumentMatch, offset, length int) []DocumentMatch {
	if offset >= len(matches) {
		return nil
	}
	end := offset + length
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end]
}

// distinctFilter keeps at most one document per distinct attribute
// value, consuming in ranked order. Since distinct operates after
// pagination's offset/length has already been applied to the ranked set,
// a dropped duplicate is not backfilled from beyond the page — an
// explicit simplification; see DESIGN.md's Open Question decisions for
// the fuller treatment.
func (e *Engine) distinctFilter(matches []DocumentMatch, attr schema.Attr, length int) []DocumentMatch {
	seen := make(map[string]bool)
	out := make([]DocumentMatch, 0, length)
	for _, m := range matches {
		fields, err := e.Stored.GetDocumentFields(m.ID)
		if err != nil {
			continue
		}
		value, ok := fields[attr]
		if ok {
			if seen[value] {
				continue
			}
			seen[value] = true
		}
		out = append(out, m)
		if len(out) >= length {
			break
		}
	}
	return out
}

func (e *Engine) materialize(matches []DocumentMatch, retrieve map[schema.Attr]bool) ([]Hit, error) {
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		fields, err := e.Stored.GetDocumentFields(m.ID)
		if err != nil {
			return nil, err
		}
		if retrieve != nil {
			filtered := make(map[schema.Attr]string, len(retrieve))
			for attr, v := range fields {
				if retrieve[attr] {
					filtered[attr] = v
				}
			}
			fields = filtered
		}
		hitMatches := make([]HitMatch, len(m.Matches))
		for i, match := range m.Matches {
			hitMatches[i] = HitMatch{
				Attribute: match.Attribute,
				Start:     match.CharIndex,
				Length:    match.CharLength,
			}
		}
		hits = append(hits, Hit{ID: m.ID, Attributes: fields, Matches: hitMatches})
	}
	return hits, nil
}

func sortMatches(matches []DocumentMatch, criteria []Criterion, ranked *rankedmap.RankedMap) {
	sort.SliceStable(matches, func(i, j int) bool {
		for _, c := range criteria {
			switch c.Compare(matches[i], matches[j], ranked) {
			case Less:
				return true
			case Greater:
				return false
			}
		}
		return false
	})
}
