// Package ingest implements the document serializer: it takes a
// loosely-typed document (the shape a JSON request body decodes into)
// and, guided by a schema.Schema, resolves each declared attribute into
// the stored/indexed/ranked form the rest of the pipeline needs.
//
// The field-by-field walk over a map[string]interface{} document is
// grounded on other_examples/gcbaptista-go-search-engine's
// addSingleDocumentUnsafe. Value handling is stricter than that file's:
// only scalar values (string, number, bool) are accepted, and any
// composite shape — arrays included — fails the document with
// ErrUnsupportedType instead of being flattened or skipped, so a
// serialization bug in a client can't silently produce an
// under-indexed document.
package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/number"
	"github.com/wizenheimer/lantern/schema"
)

// ErrUnsupportedType is returned when a field's value cannot be coerced
// into the text or scalar form its schema role requires.
var ErrUnsupportedType = errors.New("ingest: unsupported field value type")

// ErrRankedTypeMismatch is returned when a ranked attribute's value
// cannot be parsed as a number.Number.
var ErrRankedTypeMismatch = errors.New("ingest: ranked attribute value is not a number")

// Document is the resolved, schema-aligned form of a raw input document,
// ready for update.Builder.Add.
type Document struct {
	ID      docid.ID
	Stored  map[schema.Attr]string
	Indexed map[schema.Attr]string
	Ranked  map[schema.Attr]number.Number
}

// Resolve walks raw (a decoded JSON object) against sch, producing a
// Document. Attributes absent from raw (or null) are simply omitted from
// the Document's maps, except the identifier attribute, whose absence is
// ErrMissingIdentifier.
func Resolve(sch *schema.Schema, raw map[string]any) (Document, error) {
	doc := Document{
		Stored:  make(map[schema.Attr]string),
		Indexed: make(map[schema.Attr]string),
		Ranked:  make(map[schema.Attr]number.Number),
	}

	for _, decl := range sch.Declarations() {
		attr, _ := sch.Attribute(decl.Name)
		value, present := raw[decl.Name]
		if !present || value == nil {
			if attr == sch.Identifier() {
				id, err := sch.DocumentID("")
				if err != nil {
					return Document{}, err
				}
				doc.ID = id
			}
			continue
		}

		text, err := coerceText(decl.Name, value)
		if err != nil {
			return Document{}, err
		}

		if attr == sch.Identifier() {
			id, err := sch.DocumentID(text)
			if err != nil {
				return Document{}, err
			}
			doc.ID = id
		}
		if decl.Flags.Stored {
			doc.Stored[attr] = text
		}
		if decl.Flags.Indexed {
			doc.Indexed[attr] = text
		}
		if decl.Flags.Ranked {
			n, err := number.Parse(strings.TrimSpace(text))
			if err != nil {
				return Document{}, fmt.Errorf("%w: attribute %q: %v", ErrRankedTypeMismatch, decl.Name, err)
			}
			doc.Ranked[attr] = n
		}
	}

	return doc, nil
}

// coerceText reduces a raw JSON-decoded value to its text form for a
// single schema field. Only scalars are accepted: booleans become
// "true"/"false", numbers their decimal form. Arrays, objects, and any
// other composite shape fail the document with ErrUnsupportedType.
func coerceText(fieldName string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64, int, int64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%w: field %q has type %T", ErrUnsupportedType, fieldName, value)
	}
}
