package store

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/rankedmap"
	"github.com/wizenheimer/lantern/update"
)

// readIndex decodes the committed index under the reserved key, or an
// empty one when no commit has happened yet.
func readIndex(txn *badger.Txn) (*fstindex.Index, error) {
	item, err := txn.Get(indexKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fstindex.Empty()
	}
	if err != nil {
		return nil, err
	}
	var out *fstindex.Index
	err = item.Value(func(val []byte) error {
		var decodeErr error
		out, decodeErr = fstindex.Decode(val)
		return decodeErr
	})
	return out, err
}

// readRankedMap decodes the committed ranked map under the reserved key,
// or an empty one when no commit has happened yet.
func readRankedMap(txn *badger.Txn) (*rankedmap.RankedMap, error) {
	item, err := txn.Get(rankedMapKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rankedmap.NewBuilder().Build(), nil
	}
	if err != nil {
		return nil, err
	}
	var out *rankedmap.RankedMap
	err = item.Value(func(val []byte) error {
		var decodeErr error
		out, decodeErr = rankedmap.Decode(val)
		return decodeErr
	})
	return out, err
}

// applyOps reads the committed index and ranked map through txn and
// folds ops over both in order.
func applyOps(txn *badger.Txn, ops []update.Op) (*fstindex.Index, *rankedmap.RankedMap, error) {
	index, err := readIndex(txn)
	if err != nil {
		return nil, nil, err
	}
	ranked, err := readRankedMap(txn)
	if err != nil {
		return nil, nil, err
	}
	return foldOps(index, ranked, ops)
}

// foldOps applies each op to the index and ranked map in sequence.
// Order is the correctness hinge: a batch's removal operand must land
// before its update operand so a re-indexed document's fresh postings
// survive the removal of its stale ones.
func foldOps(index *fstindex.Index, ranked *rankedmap.RankedMap, ops []update.Op) (*fstindex.Index, *rankedmap.RankedMap, error) {
	var err error
	for _, op := range ops {
		if index, err = op.ApplyToIndex(index); err != nil {
			return nil, nil, fmt.Errorf("store: apply index op: %w", err)
		}
		if ranked, err = op.ApplyToRankedMap(ranked); err != nil {
			return nil, nil, fmt.Errorf("store: apply ranked map op: %w", err)
		}
	}
	return index, ranked, nil
}
