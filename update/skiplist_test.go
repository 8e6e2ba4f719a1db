package update

import (
	"math/rand"
	"testing"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/postings"
	"github.com/wizenheimer/lantern/schema"
)

func newTestSkipList() *tokenSkipList {
	return newTokenSkipList(rand.New(rand.NewSource(1)))
}

func entry(doc docid.ID) postings.DocIndex {
	return postings.DocIndex{DocumentID: doc, Attribute: schema.Attr(0), WordIndex: 0}
}

func TestSkipList_AppendNewToken(t *testing.T) {
	sl := newTestSkipList()
	sl.Append("fox", entry(1))

	var tokens []string
	sl.ForEach(func(token string, entries []postings.DocIndex) {
		tokens = append(tokens, token)
	})
	if len(tokens) != 1 || tokens[0] != "fox" {
		t.Fatalf("tokens = %v, want [fox]", tokens)
	}
}

func TestSkipList_AppendMergesExistingToken(t *testing.T) {
	sl := newTestSkipList()
	sl.Append("fox", entry(1))
	sl.Append("fox", entry(2))

	found, _ := sl.search("fox")
	if found == nil {
		t.Fatal("expected fox to be present")
	}
	if len(found.postings) != 2 {
		t.Fatalf("got %d postings for fox, want 2", len(found.postings))
	}
}

func TestSkipList_ForEach_AscendingOrder(t *testing.T) {
	sl := newTestSkipList()
	sl.Append("fox", entry(1))
	sl.Append("brown", entry(1))
	sl.Append("quick", entry(1))

	var tokens []string
	sl.ForEach(func(token string, entries []postings.DocIndex) {
		tokens = append(tokens, token)
	})

	want := []string{"brown", "fox", "quick"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestSkipList_ToMap(t *testing.T) {
	sl := newTestSkipList()
	sl.Append("fox", entry(1), entry(2))
	sl.Append("brown", entry(1))

	m := sl.ToMap()
	if len(m) != 2 {
		t.Fatalf("got %d keys, want 2", len(m))
	}
	if len(m["fox"]) != 2 {
		t.Errorf("fox postings = %v, want 2 entries", m["fox"])
	}
}

func TestSkipList_SearchMissing(t *testing.T) {
	sl := newTestSkipList()
	sl.Append("fox", entry(1))

	found, _ := sl.search("dog")
	if found != nil {
		t.Error("expected dog to be absent")
	}
}
