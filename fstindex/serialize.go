package fstindex

import (
	"encoding/binary"
	"fmt"

	"github.com/blevesearch/vellum"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/postings"
	"github.com/wizenheimer/lantern/schema"
)

// formatVersion is bumped whenever the on-disk layout changes incompatibly.
const formatVersion = 1

const docIndexSize = 8 + 2 + 2 + 2 + 2 // DocumentID + Attribute + WordIndex + CharIndex + CharLength

// Encode serializes idx as: a one-byte format version, an 8-byte
// little-endian FST length, the raw FST bytes, an 8-byte little-endian
// postings count, then each DocIndex tuple packed fixed-width.
func (idx *Index) Encode() ([]byte, error) {
	fstBytes := idx.fstBytes

	out := make([]byte, 0, 1+8+len(fstBytes)+8+len(idx.postings)*docIndexSize)
	out = append(out, formatVersion)
	out = appendUint64(out, uint64(len(fstBytes)))
	out = append(out, fstBytes...)
	out = appendUint64(out, uint64(len(idx.postings)))
	for _, p := range idx.postings {
		out = appendUint64(out, uint64(p.DocumentID))
		out = appendUint16(out, uint16(p.Attribute))
		out = appendUint16(out, p.WordIndex)
		out = appendUint16(out, p.CharIndex)
		out = appendUint16(out, p.CharLength)
	}
	return out, nil
}

// Decode parses an Index from the layout Encode writes.
func Decode(data []byte) (*Index, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty data", ErrCorruption)
	}
	if data[0] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruption, data[0])
	}
	data = data[1:]

	fstLen, data, err := takeUint64(data)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < fstLen {
		return nil, fmt.Errorf("%w: truncated fst section", ErrCorruption)
	}
	fstBytes := data[:fstLen]
	data = data[fstLen:]

	count, data, err := takeUint64(data)
	if err != nil {
		return nil, err
	}
	list := make([]postings.DocIndex, count)
	for i := range list {
		var docID, attr, wordIdx, charIdx, charLen uint64
		if docID, data, err = takeUint64(data); err != nil {
			return nil, err
		}
		if attr, data, err = takeUint16AsUint64(data); err != nil {
			return nil, err
		}
		if wordIdx, data, err = takeUint16AsUint64(data); err != nil {
			return nil, err
		}
		if charIdx, data, err = takeUint16AsUint64(data); err != nil {
			return nil, err
		}
		if charLen, data, err = takeUint16AsUint64(data); err != nil {
			return nil, err
		}
		list[i] = postings.DocIndex{
			DocumentID: docidFromUint64(docID),
			Attribute:  attrFromUint64(attr),
			WordIndex:  uint16(wordIdx),
			CharIndex:  uint16(charIdx),
			CharLength: uint16(charLen),
		}
	}

	// Copy out of the caller's buffer: data may alias a transaction-scoped
	// value that is reused once the read closes.
	fstCopy := append([]byte(nil), fstBytes...)
	fst, err := loadFST(fstCopy)
	if err != nil {
		return nil, err
	}
	return &Index{fst: fst, fstBytes: fstCopy, postings: list}, nil
}

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func takeUint64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, fmt.Errorf("%w: truncated uint64", ErrCorruption)
	}
	return binary.LittleEndian.Uint64(b[:8]), b[8:], nil
}

func takeUint16AsUint64(b []byte) (uint64, []byte, error) {
	if len(b) < 2 {
		return 0, nil, fmt.Errorf("%w: truncated uint16", ErrCorruption)
	}
	return uint64(binary.LittleEndian.Uint16(b[:2])), b[2:], nil
}

func docidFromUint64(v uint64) docid.ID {
	return docid.ID(v)
}

func attrFromUint64(v uint64) schema.Attr {
	return schema.Attr(v)
}

func loadFST(b []byte) (*vellum.FST, error) {
	fst, err := vellum.Load(b)
	if err != nil {
		return nil, fmt.Errorf("%w: load fst: %v", ErrIO, err)
	}
	return fst, nil
}
