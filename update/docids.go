package update

import (
	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/wizenheimer/lantern/docid"
)

// DocIds is a compact, deduplicated, sortable set of document ids,
// backed by a roaring bitmap so a batch
// touching millions of documents stays small in memory and iterates in
// ascending order for free — the same ordering RemovedDocuments and the
// posting blob both need. Document ids are 64-bit (docid.FromString's
// xxhash digest), so this wraps roaring's 64-bit variant rather than the
// 32-bit github.com/RoaringBitmap/roaring.Bitmap the plain uint32 case
// would use.
type DocIds struct {
	bitmap *roaring64.Bitmap
}

// NewDocIds returns an empty DocIds set.
func NewDocIds() *DocIds {
	return &DocIds{bitmap: roaring64.New()}
}

// Add inserts id into the set.
func (d *DocIds) Add(id docid.ID) {
	d.bitmap.Add(uint64(id))
}

// Contains reports whether id is in the set.
func (d *DocIds) Contains(id docid.ID) bool {
	return d.bitmap.Contains(uint64(id))
}

// Len returns the number of distinct ids in the set.
func (d *DocIds) Len() int {
	return int(d.bitmap.GetCardinality())
}

// ForEach visits every id in ascending order.
func (d *DocIds) ForEach(visit func(docid.ID)) {
	it := d.bitmap.Iterator()
	for it.HasNext() {
		visit(docid.ID(it.Next()))
	}
}

// Predicate returns a docid.ID → bool closure suitable for
// fstindex.RemovedFilter / rankedmap's WithRemovedDocuments filter
// parameter.
func (d *DocIds) Predicate() func(docid.ID) bool {
	return d.Contains
}
