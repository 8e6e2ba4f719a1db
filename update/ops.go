package update

import (
	"errors"
	"fmt"

	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/rankedmap"
)

// ErrCorruption is returned when an Op carries an unknown kind.
var ErrCorruption = errors.New("update: corrupt merge operand")

// Kind tags which write event an Op encodes.
type Kind byte

const (
	// KindRemovedDocuments drops entries for a set of document ids from
	// the base Index and RankedMap.
	KindRemovedDocuments Kind = iota
	// KindUpdatedDocuments merges a batch's Index/RankedMap into the base.
	KindUpdatedDocuments
)

// Op is one write event of a batch flush. The store folds a batch's
// ops over its committed state in the order Batch.Ops returns them,
// which is why Ops always places the RemovedDocuments operand ahead of
// the UpdatedDocuments operand for the same flush: re-indexing a
// changed document must not leave its stale postings behind.
type Op struct {
	Kind    Kind
	Removed *DocIds              // set when Kind == KindRemovedDocuments
	Index   *fstindex.Index      // set when Kind == KindUpdatedDocuments
	Ranked  *rankedmap.RankedMap // set when Kind == KindUpdatedDocuments
}

// Ops returns this batch's write events for the fstindex/rankedmap
// pair, in the order they must be applied: RemovedDocuments (if any),
// then UpdatedDocuments. The removal operand carries the full touched
// set (Added ∪ Removed), not just the explicit removals — a document
// re-added in this batch must first lose the postings and ranked values
// an earlier commit gave it, or tokens its new content no longer
// contains would keep matching it.
func (batch *Batch) Ops() []Op {
	var ops []Op
	if batch.Touched.Len() > 0 {
		ops = append(ops, Op{Kind: KindRemovedDocuments, Removed: batch.Touched})
	}
	ops = append(ops, Op{Kind: KindUpdatedDocuments, Index: batch.Index, Ranked: batch.Ranked})
	return ops
}

// ApplyToIndex folds this Op into base, applying its Index-side effect.
func (op Op) ApplyToIndex(base *fstindex.Index) (*fstindex.Index, error) {
	switch op.Kind {
	case KindRemovedDocuments:
		return base.WithRemovedDocuments(op.Removed.Predicate())
	case KindUpdatedDocuments:
		return base.Merge(op.Index)
	default:
		return nil, fmt.Errorf("%w: unknown op kind %d", ErrCorruption, op.Kind)
	}
}

// ApplyToRankedMap folds this Op into base, applying its RankedMap-side
// effect.
func (op Op) ApplyToRankedMap(base *rankedmap.RankedMap) (*rankedmap.RankedMap, error) {
	switch op.Kind {
	case KindRemovedDocuments:
		return base.WithRemovedDocuments(op.Removed.Predicate()), nil
	case KindUpdatedDocuments:
		return base.Merge(op.Ranked)
	default:
		return nil, fmt.Errorf("%w: unknown op kind %d", ErrCorruption, op.Kind)
	}
}
