// Package schema implements the declarative per-index attribute map: a
// bijective name↔Attr mapping, per-attribute indexed/stored/ranked
// flags, and the single identifier attribute.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHY A FIXED SMALL INTEGER PER ATTRIBUTE?
// ═══════════════════════════════════════════════════════════════════════════════
// Every posting (postings.DocIndex) and every ranked-map key carries an
// attribute id, not an attribute name. Strings are expensive to compare and
// to pack into the FST's postings blob; a uint16 assigned once at schema
// build time is free to copy and compare, and the index never needs to
// grow past the handful of attributes a document schema realistically
// declares.
// ═══════════════════════════════════════════════════════════════════════════════
package schema

import (
	"errors"
	"fmt"

	"github.com/wizenheimer/lantern/docid"
)

// Errors returned by Build. Construction-time, fatal to the operation;
// package-level sentinels so callers can compare with errors.Is.
var (
	ErrDuplicateAttribute  = errors.New("schema: duplicate attribute name")
	ErrNoIdentifier        = errors.New("schema: no identifier attribute declared")
	ErrIdentifierNotStored = errors.New("schema: identifier attribute must be stored")
	ErrUnknownAttribute    = errors.New("schema: unknown attribute name")
	ErrMissingIdentifier   = errors.New("schema: document has no value for the identifier attribute")
)

// Attr is the 16-bit attribute identifier.
type Attr uint16

// Flags records which roles an attribute plays.
type Flags struct {
	Indexed bool
	Stored  bool
	Ranked  bool
}

// Declaration is one attribute's name and flags, as supplied to Build.
// Order matters: Attr assignment follows declaration order.
type Declaration struct {
	Name  string
	Flags Flags
}

type attrInfo struct {
	name  string
	flags Flags
}

// Schema is the immutable, ordered attribute map for one index.
type Schema struct {
	byAttr        []attrInfo // index i holds the info for Attr(i)
	byName        map[string]Attr
	identifier    Attr
	hasIdentifier bool
}

// Build constructs a Schema from an ordered list of declarations. Exactly
// one declaration must be the identifier (named identifierName), and it
// must be Stored.
func Build(decls []Declaration, identifierName string) (*Schema, error) {
	s := &Schema{
		byName: make(map[string]Attr, len(decls)),
	}
	for _, d := range decls {
		if _, exists := s.byName[d.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAttribute, d.Name)
		}
		attr := Attr(len(s.byAttr))
		s.byAttr = append(s.byAttr, attrInfo{name: d.Name, flags: d.Flags})
		s.byName[d.Name] = attr
		if d.Name == identifierName {
			s.identifier = attr
			s.hasIdentifier = true
		}
	}
	if !s.hasIdentifier {
		return nil, fmt.Errorf("%w: %q", ErrNoIdentifier, identifierName)
	}
	if !s.byAttr[s.identifier].flags.Stored {
		return nil, fmt.Errorf("%w: %q", ErrIdentifierNotStored, identifierName)
	}
	return s, nil
}

// Attribute returns the Attr assigned to name, if any.
func (s *Schema) Attribute(name string) (Attr, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// AttributeName returns the declared name for attr. Panics if attr is out
// of range — callers only ever hold Attr values this Schema produced.
func (s *Schema) AttributeName(attr Attr) string {
	return s.byAttr[attr].name
}

// Flags returns the indexed/stored/ranked flags for attr.
func (s *Schema) Flags(attr Attr) Flags {
	return s.byAttr[attr].flags
}

// Identifier returns the attribute designated as the document identifier.
func (s *Schema) Identifier() Attr {
	return s.identifier
}

// NumAttributes returns the number of declared attributes.
func (s *Schema) NumAttributes() int {
	return len(s.byAttr)
}

// Declarations returns the schema's declarations in assignment order,
// suitable for re-serializing.
func (s *Schema) Declarations() []Declaration {
	out := make([]Declaration, len(s.byAttr))
	for i, info := range s.byAttr {
		out[i] = Declaration{Name: info.name, Flags: info.flags}
	}
	return out
}

// DocumentID hashes the identifier attribute's raw text value into a
// docid.ID. identifierValue must already be resolved by the caller (the
// ingest package looks the field up by name before calling this).
func (s *Schema) DocumentID(identifierValue string) (docid.ID, error) {
	if identifierValue == "" {
		return 0, ErrMissingIdentifier
	}
	return docid.FromString(identifierValue), nil
}
