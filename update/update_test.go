package update

import (
	"testing"

	"github.com/wizenheimer/lantern/ingest"
	"github.com/wizenheimer/lantern/schema"
	"github.com/wizenheimer/lantern/tokenizer"
)

func buildTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.Build([]schema.Declaration{
		{Name: "id", Flags: schema.Flags{Stored: true}},
		{Name: "title", Flags: schema.Flags{Stored: true, Indexed: true}},
		{Name: "rank", Flags: schema.Flags{Ranked: true}},
	}, "id")
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}
	return sch
}

func TestBuilder_AddAndBuild(t *testing.T) {
	sch := buildTestSchema(t)
	b := NewBuilder(sch, nil)

	doc, err := ingest.Resolve(sch, map[string]any{
		"id":    "doc-1",
		"title": "The Quick Brown Fox",
		"rank":  5,
	})
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

	if batch.Added.Len() != 1 || !batch.Added.Contains(doc.ID) {
		t.Errorf("Added = %+v, want only doc.ID", batch.Added)
	}
	if !batch.Touched.Contains(doc.ID) {
		t.Error("expected the added document to join the touched set")
	}

	list, ok, err := batch.Index.Lookup("quick")
	if err != nil || !ok {
		t.Fatalf("expected quick to be indexed, err=%v ok=%v", err, ok)
	}
	if len(list) != 1 || list[0].DocumentID != doc.ID {
		t.Errorf("quick postings = %+v, want one entry for doc.ID", list)
	}

	attr, _ := sch.Attribute("rank")
	v, ok := batch.Ranked.Get(doc.ID, attr)
	if !ok || v.Int64() != 5 {
		t.Errorf("ranked value = %v, ok=%v, want 5", v, ok)
	}

	attrTitle, _ := sch.Attribute("title")
	if batch.Stored[doc.ID][attrTitle] != "The Quick Brown Fox" {
		t.Errorf("stored title = %q, want original text", batch.Stored[doc.ID][attrTitle])
	}
}

func TestBuilder_Remove(t *testing.T) {
	sch := buildTestSchema(t)
	b := NewBuilder(sch, nil)
	b.Remove(42)

	batch, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if batch.Removed.Len() != 1 || !batch.Removed.Contains(42) {
		t.Errorf("Removed = %+v, want only doc 42", batch.Removed)
	}
	if !batch.Touched.Contains(42) {
		t.Error("expected the removed document to join the touched set")
	}
}

func TestBuilder_StopWordsAreExcludedFromIndex(t *testing.T) {
	sch := buildTestSchema(t)
	stop := tokenizer.NewStopWords([]string{"the"})
	b := NewBuilder(sch, stop)

	doc, err := ingest.Resolve(sch, map[string]any{
		"id":    "doc-1",
		"title": "The Fox",
	})
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
	if _, ok, _ := batch.Index.Lookup("the"); ok {
		t.Error("expected stop word \"the\" to be absent from the index")
	}
	if _, ok, _ := batch.Index.Lookup("fox"); !ok {
		t.Error("expected \"fox\" to be indexed")
	}
}

func TestClampUint16(t *testing.T) {
	tests := []struct {
		in   int
		want uint16
	}{
		{-1, 0},
		{0, 0},
		{100, 100},
		{maxFieldRunes, maxFieldRunes},
		{maxFieldRunes + 1, maxFieldRunes},
	}
	for _, tt := range tests {
		if got := clampUint16(tt.in); got != tt.want {
			t.Errorf("clampUint16(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
