package update

import (
	"math/rand"
	"time"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/ingest"
	"github.com/wizenheimer/lantern/postings"
	"github.com/wizenheimer/lantern/rankedmap"
	"github.com/wizenheimer/lantern/schema"
	"github.com/wizenheimer/lantern/tokenizer"
)

// maxFieldRunes caps how much of an indexed field's text contributes
// position data to a single posting, since CharIndex/CharLength are
// packed as uint16. Text beyond this is still tokenized and indexed for
// matching; positions past the cap saturate at the maximum representable
// offset rather than overflow.
const maxFieldRunes = 1<<16 - 1

// Builder accumulates one update batch's worth of documents — new
// postings, ranked values, stored field data, and removed document ids —
// before Build freezes it into a Batch ready to flush as an ordered pair
// of merge operands.
type Builder struct {
	schema  *schema.Schema
	stop    tokenizer.StopWords
	tokens  *tokenSkipList
	ranked  *rankedmap.Builder
	added   *DocIds
	removed *DocIds
	touched *DocIds // added ∪ removed: every document this batch writes or deletes
	stored  map[docid.ID]map[schema.Attr]string
}

// NewBuilder returns an empty Builder for documents conforming to sch.
func NewBuilder(sch *schema.Schema, stop tokenizer.StopWords) *Builder {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Builder{
		schema:  sch,
		stop:    stop,
		tokens:  newTokenSkipList(rng),
		ranked:  rankedmap.NewBuilder(),
		added:   NewDocIds(),
		removed: NewDocIds(),
		touched: NewDocIds(),
		stored:  make(map[docid.ID]map[schema.Attr]string),
	}
}

// Add stages a resolved document's indexed, ranked, and stored data into
// the batch. The id joins the touched set, so the flush's removal
// operand strips any postings a previous commit of the same document
// left behind before the fresh ones merge in.
func (b *Builder) Add(doc ingest.Document) error {
	b.added.Add(doc.ID)
	b.touched.Add(doc.ID)

	for attr, text := range doc.Indexed {
		err := tokenizer.Tokenize(text, b.stop, func(tok tokenizer.Token) error {
			b.tokens.Append(tok.Text, postings.DocIndex{
				DocumentID: doc.ID,
				Attribute:  attr,
				WordIndex:  clampUint16(tok.WordIndex),
				CharIndex:  clampUint16(tok.CharIndex),
				CharLength: clampUint16(tok.CharLen),
			})
			return nil
		})
		if err != nil {
			return err
		}
	}

	for attr, n := range doc.Ranked {
		if err := b.ranked.Put(doc.ID, attr, n); err != nil {
			return err
		}
	}

	if len(doc.Stored) > 0 {
		fields := make(map[schema.Attr]string, len(doc.Stored))
		for attr, v := range doc.Stored {
			fields[attr] = v
		}
		b.stored[doc.ID] = fields
	}

	return nil
}

// Remove stages id for removal in this batch.
func (b *Builder) Remove(id docid.ID) {
	b.removed.Add(id)
	b.touched.Add(id)
}

// Batch is a frozen, ready-to-flush update: the Index and RankedMap built
// from this batch's staged documents, its stored field data, and the
// document-id sets describing what the batch touches. Touched is
// Added ∪ Removed — every document the batch writes or deletes — and is
// what the removal operand carries, so a re-indexed document's stale
// state is stripped even when nothing was explicitly removed.
type Batch struct {
	Removed *DocIds
	Added   *DocIds
	Touched *DocIds
	Index   *fstindex.Index
	Ranked  *rankedmap.RankedMap
	Stored  map[docid.ID]map[schema.Attr]string
}

// Build freezes the staged documents into a Batch. The returned Index and
// RankedMap describe only what was staged in this Builder — callers
// fold them into the store's existing base Index/RankedMap via the
// merge operands in ops.go, applying the removal operand before the
// update operand so a document re-added in the same batch survives.
func (b *Builder) Build() (*Batch, error) {
	index, err := fstindex.Build(b.tokens.ToMap())
	if err != nil {
		return nil, err
	}
	return &Batch{
		Removed: b.removed,
		Added:   b.added,
		Touched: b.touched,
		Index:   index,
		Ranked:  b.ranked.Build(),
		Stored:  b.stored,
	}, nil
}

// clampUint16 saturates n into the uint16 range DocIndex's position
// fields use, rather than silently wrapping on overflow (see
// maxFieldRunes).
func clampUint16(n int) uint16 {
	if n < 0 {
		return 0
	}
	if n > maxFieldRunes {
		return maxFieldRunes
	}
	return uint16(n)
}
