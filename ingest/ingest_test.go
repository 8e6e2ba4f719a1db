package ingest

import (
	"errors"
	"testing"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/schema"
)

func buildTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.Build([]schema.Declaration{
		{Name: "id", Flags: schema.Flags{Stored: true}},
		{Name: "title", Flags: schema.Flags{Stored: true, Indexed: true}},
		{Name: "tags", Flags: schema.Flags{Indexed: true}},
		{Name: "popularity", Flags: schema.Flags{Ranked: true}},
	}, "id")
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}
	return sch
}

func TestResolve_HappyPath(t *testing.T) {
	sch := buildTestSchema(t)
	doc, err := Resolve(sch, map[string]any{
		"id":         "movie-1",
		"title":      "The Matrix",
		"tags":       "scifi action",
		"popularity": 87,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	wantID := docid.FromString("movie-1")
	if doc.ID != wantID {
		t.Errorf("doc.ID = %v, want %v", doc.ID, wantID)
	}

	titleAttr, _ := sch.Attribute("title")
	if doc.Stored[titleAttr] != "The Matrix" {
		t.Errorf("Stored[title] = %q, want %q", doc.Stored[titleAttr], "The Matrix")
	}
	if doc.Indexed[titleAttr] != "The Matrix" {
		t.Errorf("Indexed[title] = %q, want %q", doc.Indexed[titleAttr], "The Matrix")
	}

	tagsAttr, _ := sch.Attribute("tags")
	if doc.Indexed[tagsAttr] != "scifi action" {
		t.Errorf("Indexed[tags] = %q, want %q", doc.Indexed[tagsAttr], "scifi action")
	}

	popAttr, _ := sch.Attribute("popularity")
	v, ok := doc.Ranked[popAttr]
	if !ok || v.Int64() != 87 {
		t.Errorf("Ranked[popularity] = %v, ok=%v, want 87", v, ok)
	}
}

func TestResolve_RejectsJSONArray(t *testing.T) {
	sch := buildTestSchema(t)
	_, err := Resolve(sch, map[string]any{
		"id":   "movie-2",
		"tags": []any{"drama", "thriller"},
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType (arrays are not scalars)", err)
	}
}

func TestResolve_RejectsStringSlice(t *testing.T) {
	sch := buildTestSchema(t)
	_, err := Resolve(sch, map[string]any{
		"id":   "movie-3",
		"tags": []string{"drama", "thriller"},
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType (arrays are not scalars)", err)
	}
}

func TestResolve_UnsupportedFieldType(t *testing.T) {
	sch := buildTestSchema(t)
	_, err := Resolve(sch, map[string]any{
		"id":    "movie-4",
		"title": map[string]any{"nested": true},
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestResolve_RankedTypeMismatch(t *testing.T) {
	sch := buildTestSchema(t)
	_, err := Resolve(sch, map[string]any{
		"id":         "movie-5",
		"popularity": "not-a-number",
	})
	if !errors.Is(err, ErrRankedTypeMismatch) {
		t.Errorf("err = %v, want ErrRankedTypeMismatch", err)
	}
}

func TestResolve_MissingIdentifier(t *testing.T) {
	sch := buildTestSchema(t)
	_, err := Resolve(sch, map[string]any{
		"title": "No Id Here",
	})
	if !errors.Is(err, schema.ErrMissingIdentifier) {
		t.Errorf("err = %v, want schema.ErrMissingIdentifier", err)
	}
}

func TestResolve_OptionalFieldAbsent(t *testing.T) {
	sch := buildTestSchema(t)
	doc, err := Resolve(sch, map[string]any{
		"id": "movie-6",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	titleAttr, _ := sch.Attribute("title")
	if _, ok := doc.Indexed[titleAttr]; ok {
		t.Error("expected absent title field to be omitted from Indexed")
	}
}
