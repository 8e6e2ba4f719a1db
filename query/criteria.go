package query

import (
	"github.com/wizenheimer/lantern/rankedmap"
	"github.com/wizenheimer/lantern/schema"
)

// Ordering is the three-way result a Criterion's Compare returns; the
// pipeline stops at the first non-Equal result.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// Criterion is a total-order comparator over DocumentMatch pairs. The
// pipeline in Engine.Search is a plain ordered slice of these: a
// capability set rather than a class hierarchy, where Criterion is a
// one-method interface and every built-in is a small stateless
// implementation of it.
type Criterion interface {
	Compare(a, b DocumentMatch, ranked *rankedmap.RankedMap) Ordering
}

// DefaultCriteria returns the built-in pipeline in its canonical order,
// terminated by the document-id tie-breaker.
func DefaultCriteria() []Criterion {
	return []Criterion{
		sumOfTypos{},
		numberOfWords{},
		wordsProximity{},
		sumOfWordsAttribute{},
		sumOfWordsPosition{},
		exact{},
		documentID{},
	}
}

// ParseCriteria resolves a configured list of rule names into Criterion
// values. Unrecognized names are tolerated: warn is called once per
// unrecognized name and the name is otherwise skipped; pass a no-op to
// suppress the warning.
func ParseCriteria(names []string, warn func(name string)) []Criterion {
	var out []Criterion
	for _, name := range names {
		switch name {
		case "SumOfTypos":
			out = append(out, sumOfTypos{})
		case "NumberOfWords":
			out = append(out, numberOfWords{})
		case "WordsProximity":
			out = append(out, wordsProximity{})
		case "SumOfWordsAttribute":
			out = append(out, sumOfWordsAttribute{})
		case "SumOfWordsPosition":
			out = append(out, sumOfWordsPosition{})
		case "Exact":
			out = append(out, exact{})
		case "DocumentId":
			out = append(out, documentID{})
		default:
			if warn != nil {
				warn(name)
			}
		}
	}
	return out
}

func compareInts(a, b int) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

// distinctQueryIndices collapses a DocumentMatch's matches into the set
// of query-token indices it hit at all, for criteria keyed on
// query_index rather than raw match count.
func distinctQueryIndices(m DocumentMatch) map[int]bool {
	out := make(map[int]bool, len(m.Matches))
	for _, mm := range m.Matches {
		out[mm.QueryIndex] = true
	}
	return out
}

// sumOfTypos: Σ over query-indices present of min edit distance at that
// index. Lower is better.
type sumOfTypos struct{}

func (sumOfTypos) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	return compareInts(minDistanceSum(a), minDistanceSum(b))
}

func minDistanceSum(m DocumentMatch) int {
	best := make(map[int]int)
	for _, mm := range m.Matches {
		if cur, ok := best[mm.QueryIndex]; !ok || mm.Distance < cur {
			best[mm.QueryIndex] = mm.Distance
		}
	}
	sum := 0
	for _, d := range best {
		sum += d
	}
	return sum
}

// numberOfWords: −(count of distinct query-indices matched). Fewer
// distinct matched query tokens ranks worse, hence the negation so lower
// sorts first per this package's "ascending = better" convention.
type numberOfWords struct{}

func (numberOfWords) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	return compareInts(-len(distinctQueryIndices(a)), -len(distinctQueryIndices(b)))
}

// wordsProximity: Σ of pairwise squared proximity penalties between
// adjacent matched query tokens in the same attribute; gap g contributes
// min(g, 8)², different-attribute pairs contribute 8².
type wordsProximity struct{}

const maxProximityGap = 8

func (wordsProximity) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	return compareInts(proximityPenalty(a), proximityPenalty(b))
}

func proximityPenalty(m DocumentMatch) int {
	// For each pair of adjacent query indices (q, q+1) both present in m,
	// take the minimum proximity penalty over every pair of their
	// occurrences.
	byIndex := make(map[int][]Match)
	maxQ := -1
	for _, mm := range m.Matches {
		byIndex[mm.QueryIndex] = append(byIndex[mm.QueryIndex], mm)
		if mm.QueryIndex > maxQ {
			maxQ = mm.QueryIndex
		}
	}

	total := 0
	for q := 0; q < maxQ; q++ {
		left, lok := byIndex[q]
		right, rok := byIndex[q+1]
		if !lok || !rok {
			continue
		}
		best := maxProximityGap * maxProximityGap
		for _, l := range left {
			for _, r := range right {
				penalty := maxProximityGap * maxProximityGap
				if l.Attribute == r.Attribute {
					gap := int(r.WordIndex) - int(l.WordIndex)
					if gap < 0 {
						gap = -gap
					}
					if gap > maxProximityGap {
						gap = maxProximityGap
					}
					penalty = gap * gap
				}
				if penalty < best {
					best = penalty
				}
			}
		}
		total += best
	}
	return total
}

// sumOfWordsAttribute: Σ of attribute-id over matched tokens — lower
// attribute ids rank better.
type sumOfWordsAttribute struct{}

func (sumOfWordsAttribute) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	return compareInts(sumAttributeIDs(a), sumAttributeIDs(b))
}

func sumAttributeIDs(m DocumentMatch) int {
	sum := 0
	for _, mm := range m.Matches {
		sum += int(mm.Attribute)
	}
	return sum
}

// sumOfWordsPosition: Σ of word_index over matched tokens.
type sumOfWordsPosition struct{}

func (sumOfWordsPosition) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	return compareInts(sumWordIndices(a), sumWordIndices(b))
}

func sumWordIndices(m DocumentMatch) int {
	sum := 0
	for _, mm := range m.Matches {
		sum += int(mm.WordIndex)
	}
	return sum
}

// exact: −(count of matches with is_exact && word_index == 0).
type exact struct{}

func (exact) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	return compareInts(-countExactFirstWord(a), -countExactFirstWord(b))
}

func countExactFirstWord(m DocumentMatch) int {
	n := 0
	for _, mm := range m.Matches {
		if mm.IsExact && mm.WordIndex == 0 {
			n++
		}
	}
	return n
}

// documentID is the terminal tie-breaker: document id ascending.
type documentID struct{}

func (documentID) Compare(a, b DocumentMatch, _ *rankedmap.RankedMap) Ordering {
	switch {
	case a.ID < b.ID:
		return Less
	case a.ID > b.ID:
		return Greater
	default:
		return Equal
	}
}

// SortByAttr is a custom criterion reading from RankedMap[(doc, attr)]:
// documents missing a value are ordered after documents with any value.
// Ascending true means ascending order.
type SortByAttr struct {
	Attribute schema.Attr
	Ascending bool
}

func (c SortByAttr) Compare(a, b DocumentMatch, ranked *rankedmap.RankedMap) Ordering {
	av, aok := ranked.Get(a.ID, c.Attribute)
	bv, bok := ranked.Get(b.ID, c.Attribute)
	switch {
	case aok && !bok:
		return Less
	case !aok && bok:
		return Greater
	case !aok && !bok:
		return Equal
	}

	cmp, err := av.Compare(bv)
	if err != nil {
		// Mixed-variant attribute values: fall back to treating both as
		// equal rather than panicking a ranking pass over one malformed
		// attribute (number.ErrMixedVariant indicates the ingest-time
		// variant check at rankedmap.Builder.Put was bypassed, which
		// should not happen for data that ever passed through ingest).
		return Equal
	}
	if !c.Ascending {
		cmp = -cmp
	}
	return Ordering(cmp)
}
