package store

import (
	"testing"

	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/number"
	"github.com/wizenheimer/lantern/postings"
	"github.com/wizenheimer/lantern/rankedmap"
	"github.com/wizenheimer/lantern/update"
)

func emptyState(t *testing.T) (*fstindex.Index, *rankedmap.RankedMap) {
	t.Helper()
	idx, err := fstindex.Empty()
	if err != nil {
		t.Fatalf("fstindex.Empty failed: %v", err)
	}
	return idx, rankedmap.NewBuilder().Build()
}

func TestFoldOps_AppliesUpdate(t *testing.T) {
	baseIdx, baseRanked := emptyState(t)

	incoming, err := fstindex.Build(map[string][]postings.DocIndex{
		"fox": {{DocumentID: 1, Attribute: 0, WordIndex: 0}},
	})
	if err != nil {
		t.Fatalf("fstindex.Build failed: %v", err)
	}
	rb := rankedmap.NewBuilder()
	if err := rb.Put(1, 0, number.Int(7)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ops := []update.Op{{Kind: update.KindUpdatedDocuments, Index: incoming, Ranked: rb.Build()}}
	idx, ranked, err := foldOps(baseIdx, baseRanked, ops)
	if err != nil {
		t.Fatalf("foldOps failed: %v", err)
	}
	if _, ok, _ := idx.Lookup("fox"); !ok {
		t.Error("expected fox to be present after merging an empty base with an update")
	}
	if v, ok := ranked.Get(1, 0); !ok || v.Int64() != 7 {
		t.Errorf("ranked.Get(1, 0) = %v, ok=%v, want 7", v, ok)
	}
}

func TestFoldOps_RemovalBeforeUpdateReindexesDocument(t *testing.T) {
	// Base state contains doc 1's stale posting for "fox".
	baseIdx, err := fstindex.Build(map[string][]postings.DocIndex{
		"fox": {{DocumentID: 1, Attribute: 0, WordIndex: 3}},
	})
	if err != nil {
		t.Fatalf("fstindex.Build failed: %v", err)
	}
	rb := rankedmap.NewBuilder()
	if err := rb.Put(1, 0, number.Int(1)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	baseRanked := rb.Build()

	// The batch re-indexes doc 1 with a fresh posting at word 0.
	incoming, err := fstindex.Build(map[string][]postings.DocIndex{
		"fox": {{DocumentID: 1, Attribute: 0, WordIndex: 0}},
	})
	if err != nil {
		t.Fatalf("fstindex.Build failed: %v", err)
	}
	rb = rankedmap.NewBuilder()
	if err := rb.Put(1, 0, number.Int(2)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	removed := update.NewDocIds()
	removed.Add(1)
	ops := []update.Op{
		{Kind: update.KindRemovedDocuments, Removed: removed},
		{Kind: update.KindUpdatedDocuments, Index: incoming, Ranked: rb.Build()},
	}

	idx, ranked, err := foldOps(baseIdx, baseRanked, ops)
	if err != nil {
		t.Fatalf("foldOps failed: %v", err)
	}
	list, ok, err := idx.Lookup("fox")
	if err != nil || !ok {
		t.Fatalf("expected fox to survive re-indexing, err=%v ok=%v", err, ok)
	}
	if len(list) != 1 || list[0].WordIndex != 0 {
		t.Errorf("fox postings = %+v, want only the fresh posting at word 0", list)
	}
	if v, ok := ranked.Get(1, 0); !ok || v.Int64() != 2 {
		t.Errorf("ranked.Get(1, 0) = %v, ok=%v, want the re-indexed value 2", v, ok)
	}
}

func TestFoldOps_RemovalDropsDocument(t *testing.T) {
	baseIdx, err := fstindex.Build(map[string][]postings.DocIndex{
		"fox": {{DocumentID: 1, Attribute: 0, WordIndex: 0}},
	})
	if err != nil {
		t.Fatalf("fstindex.Build failed: %v", err)
	}
	rb := rankedmap.NewBuilder()
	if err := rb.Put(1, 0, number.Int(7)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	removed := update.NewDocIds()
	removed.Add(1)
	ops := []update.Op{{Kind: update.KindRemovedDocuments, Removed: removed}}

	idx, ranked, err := foldOps(baseIdx, rb.Build(), ops)
	if err != nil {
		t.Fatalf("foldOps failed: %v", err)
	}
	if _, ok, _ := idx.Lookup("fox"); ok {
		t.Error("expected fox to be gone after removing its only document")
	}
	if _, ok := ranked.Get(1, 0); ok {
		t.Error("expected doc 1's ranked value to be gone after removal")
	}
}

func TestFoldOps_UnknownKindRejected(t *testing.T) {
	baseIdx, baseRanked := emptyState(t)
	if _, _, err := foldOps(baseIdx, baseRanked, []update.Op{{Kind: update.Kind(99)}}); err == nil {
		t.Error("expected an error folding an op of unknown kind")
	}
}
