package store

import (
	"bytes"
	"testing"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/schema"
)

func TestDocumentKey_Distinct(t *testing.T) {
	a := DocumentKey(1)
	b := DocumentKey(2)
	if bytes.Equal(a, b) {
		t.Error("expected distinct document ids to produce distinct keys")
	}
	if a[0] != keyKindDocument {
		t.Errorf("key kind byte = %d, want %d", a[0], keyKindDocument)
	}
}

func TestDocumentKeyAttr_PrefixedByDocumentPrefix(t *testing.T) {
	id := docid.ID(42)
	prefix := DocumentPrefix(id)
	key := DocumentKeyAttr(id, schema.Attr(3))
	if !bytes.HasPrefix(key, prefix) {
		t.Errorf("DocumentKeyAttr(%d, 3) = %x, want prefix %x", id, key, prefix)
	}
}

func TestDocumentKeyAttr_DistinctAttributesDistinctKeys(t *testing.T) {
	id := docid.ID(1)
	a := DocumentKeyAttr(id, schema.Attr(0))
	b := DocumentKeyAttr(id, schema.Attr(1))
	if bytes.Equal(a, b) {
		t.Error("expected distinct attributes to produce distinct keys")
	}
}

func TestDocumentPrefix_DoesNotCollideWithReservedKeys(t *testing.T) {
	prefix := DocumentPrefix(docid.ID(1))
	for _, reserved := range [][]byte{indexKey, rankedMapKey, schemaKey} {
		if len(reserved) == len(prefix) && bytes.Equal(prefix, reserved) {
			t.Errorf("document prefix unexpectedly equals reserved key %x", reserved)
		}
	}
}

func TestDocumentKeyAttr_OrderingMatchesDocumentID(t *testing.T) {
	low := DocumentKeyAttr(docid.ID(1), schema.Attr(0))
	high := DocumentKeyAttr(docid.ID(2), schema.Attr(0))
	if bytes.Compare(low, high) >= 0 {
		t.Error("expected big-endian key encoding to preserve ascending document id order")
	}
}
