package schema

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SCHEMA FILE FORMAT
// ═══════════════════════════════════════════════════════════════════════════════
//
//	identifier = "id"
//
//	[attributes.id]
//	stored = true
//
//	[attributes.title]
//	stored  = true
//	indexed = true
//
// TOML table order is preserved by BurntSushi/toml's MetaData, which is
// what lets attribute insertion order in the file drive Attr assignment —
// a plain map[string]tomlAttr would randomize it.
// ═══════════════════════════════════════════════════════════════════════════════

type tomlFile struct {
	Identifier string              `toml:"identifier"`
	Attributes map[string]tomlAttr `toml:"attributes"`
}

type tomlAttr struct {
	Stored  bool `toml:"stored"`
	Indexed bool `toml:"indexed"`
	Ranked  bool `toml:"ranked"`
}

// LoadTOML parses a schema file in the format above, preserving the
// on-disk attribute order for Attr assignment.
func LoadTOML(data []byte) (*Schema, error) {
	var doc tomlFile
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("schema: decode toml: %w", err)
	}

	// meta.Keys() lists every decoded key in file order; filter down to
	// the direct children of the "attributes" table to recover insertion
	// order, since doc.Attributes (a Go map) does not preserve it.
	var orderedNames []string
	seen := make(map[string]bool)
	for _, key := range meta.Keys() {
		if len(key) == 2 && key[0] == "attributes" {
			name := key[1]
			if !seen[name] {
				seen[name] = true
				orderedNames = append(orderedNames, name)
			}
		}
	}

	decls := make([]Declaration, 0, len(orderedNames))
	for _, name := range orderedNames {
		a := doc.Attributes[name]
		decls = append(decls, Declaration{
			Name: name,
			Flags: Flags{
				Indexed: a.Indexed,
				Stored:  a.Stored,
				Ranked:  a.Ranked,
			},
		})
	}

	return Build(decls, doc.Identifier)
}

// EncodeTOML serializes s back to the schema file format LoadTOML reads.
//
// Known gap: toml.Encoder writes map[string]tomlAttr keys in whatever
// order encoding/json-style map iteration gives BurntSushi/toml, which is
// not guaranteed to match the original declaration order recovered by
// LoadTOML's meta.Keys() walk. A round trip through EncodeTOML then
// LoadTOML can therefore reassign Attr values even though the attribute
// set is unchanged. See DESIGN.md.
func (s *Schema) EncodeTOML() ([]byte, error) {
	doc := tomlFile{
		Identifier: s.AttributeName(s.Identifier()),
		Attributes: make(map[string]tomlAttr, len(s.byAttr)),
	}
	for _, decl := range s.Declarations() {
		doc.Attributes[decl.Name] = tomlAttr{
			Stored:  decl.Flags.Stored,
			Indexed: decl.Flags.Indexed,
			Ranked:  decl.Flags.Ranked,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("schema: encode toml: %w", err)
	}
	return buf.Bytes(), nil
}
