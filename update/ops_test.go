package update

import (
	"testing"

	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/ingest"
	"github.com/wizenheimer/lantern/number"
	"github.com/wizenheimer/lantern/postings"
	"github.com/wizenheimer/lantern/rankedmap"
)

func TestOps_RemovedPlacedBeforeUpdated(t *testing.T) {
	sch := buildTestSchema(t)
	b := NewBuilder(sch, nil)
	b.Remove(1)

	batch, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ops := batch.Ops()
	if len(ops) != 2 {
		t.Fatalf("got %d ops, want 2", len(ops))
	}
	if ops[0].Kind != KindRemovedDocuments {
		t.Errorf("ops[0].Kind = %v, want KindRemovedDocuments", ops[0].Kind)
	}
	if ops[1].Kind != KindUpdatedDocuments {
		t.Errorf("ops[1].Kind = %v, want KindUpdatedDocuments", ops[1].Kind)
	}
}

func TestOps_NoRemovalOpWhenNothingRemoved(t *testing.T) {
	sch := buildTestSchema(t)
	b := NewBuilder(sch, nil)

	batch, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ops := batch.Ops()
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	if ops[0].Kind != KindUpdatedDocuments {
		t.Errorf("ops[0].Kind = %v, want KindUpdatedDocuments", ops[0].Kind)
	}
}

func TestApplyToIndex_RemovedAndUpdated(t *testing.T) {
	base, err := fstindex.Build(map[string][]postings.DocIndex{
		"fox": {{DocumentID: 1, Attribute: 0, WordIndex: 0}},
	})
	if err != nil {
		t.Fatalf("Build base failed: %v", err)
	}
	incoming, err := fstindex.Build(map[string][]postings.DocIndex{
		"fox": {{DocumentID: 2, Attribute: 0, WordIndex: 0}},
	})
	if err != nil {
		t.Fatalf("Build incoming failed: %v", err)
	}

	removed := NewDocIds()
	removed.Add(1)
	removeOp := Op{Kind: KindRemovedDocuments, Removed: removed}
	afterRemoval, err := removeOp.ApplyToIndex(base)
	if err != nil {
		t.Fatalf("ApplyToIndex (remove) failed: %v", err)
	}
	if _, ok, _ := afterRemoval.Lookup("fox"); ok {
		t.Error("expected fox to be gone after removing its only document")
	}

	updateOp := Op{Kind: KindUpdatedDocuments, Index: incoming}
	afterUpdate, err := updateOp.ApplyToIndex(afterRemoval)
	if err != nil {
		t.Fatalf("ApplyToIndex (update) failed: %v", err)
	}
	list, ok, err := afterUpdate.Lookup("fox")
	if err != nil || !ok {
		t.Fatalf("expected fox after update, err=%v ok=%v", err, ok)
	}
	if len(list) != 1 || list[0].DocumentID != 2 {
		t.Errorf("fox postings = %+v, want only doc 2", list)
	}
}

func TestApplyToRankedMap_RemovedAndUpdated(t *testing.T) {
	baseBuilder := rankedmap.NewBuilder()
	if err := baseBuilder.Put(1, 0, number.Int(10)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	base := baseBuilder.Build()

	incomingBuilder := rankedmap.NewBuilder()
	if err := incomingBuilder.Put(2, 0, number.Int(20)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	incoming := incomingBuilder.Build()

	removed := NewDocIds()
	removed.Add(1)
	removeOp := Op{Kind: KindRemovedDocuments, Removed: removed}
	afterRemoval, err := removeOp.ApplyToRankedMap(base)
	if err != nil {
		t.Fatalf("ApplyToRankedMap (remove) failed: %v", err)
	}
	if _, ok := afterRemoval.Get(1, 0); ok {
		t.Error("expected doc 1's ranked value to be gone")
	}

	updateOp := Op{Kind: KindUpdatedDocuments, Ranked: incoming}
	afterUpdate, err := updateOp.ApplyToRankedMap(afterRemoval)
	if err != nil {
		t.Fatalf("ApplyToRankedMap (update) failed: %v", err)
	}
	if v, ok := afterUpdate.Get(2, 0); !ok || v.Int64() != 20 {
		t.Errorf("Get(2, 0) = %v, ok=%v, want 20", v, ok)
	}
}

func TestOps_ReindexEmitsRemovalOperand(t *testing.T) {
	sch := buildTestSchema(t)
	b := NewBuilder(sch, nil)

	doc, err := ingest.Resolve(sch, map[string]any{"id": "doc-1", "title": "apple"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := b.Add(doc); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	batch, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ops := batch.Ops()
	if len(ops) != 2 {
		t.Fatalf("got %d ops, want 2 (an add must also emit a removal operand)", len(ops))
	}
	if ops[0].Kind != KindRemovedDocuments || !ops[0].Removed.Contains(doc.ID) {
		t.Errorf("ops[0] = %+v, want a RemovedDocuments operand containing the re-added id", ops[0])
	}
}

func TestOps_ReindexStripsStalePostings(t *testing.T) {
	sch := buildTestSchema(t)

	commit := func(base *fstindex.Index, title string) *fstindex.Index {
		t.Helper()
		b := NewBuilder(sch, nil)
		doc, err := ingest.Resolve(sch, map[string]any{"id": "doc-1", "title": title})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if err := b.Add(doc); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		batch, err := b.Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		idx := base
		for _, op := range batch.Ops() {
			if idx, err = op.ApplyToIndex(idx); err != nil {
				t.Fatalf("ApplyToIndex failed: %v", err)
			}
		}
		return idx
	}

	idx, err := fstindex.Empty()
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	idx = commit(idx, "apple")
	idx = commit(idx, "banana")

	if _, ok, _ := idx.Lookup("apple"); ok {
		t.Error("expected the stale apple posting to be stripped when the document was re-indexed")
	}
	if _, ok, _ := idx.Lookup("banana"); !ok {
		t.Error("expected banana to be indexed after the re-index")
	}
}
