package lantern

import "errors"

// Top-level sentinel errors returned by Engine methods. Subpackages
// define their own package-level Err* vars rather than a central
// registry; these exist only because callers of the top-level Engine
// shouldn't need to import every subpackage just to compare errors.
var (
	// ErrUnknownIndex is returned by Engine.CloseIndex, Engine.Commit,
	// Engine.Schema and Engine.Search for a name no index was opened or
	// created under.
	ErrUnknownIndex = errors.New("lantern: unknown index")

	// ErrIndexExists is returned by Engine.CreateIndex when called twice
	// for the same name.
	ErrIndexExists = errors.New("lantern: index already exists")
)
