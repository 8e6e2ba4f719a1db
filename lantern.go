// Package lantern is the embeddable full-text search engine this module
// implements: tokenization and FST-backed inverted indexing at ingest
// time, typo-tolerant and prefix-aware query evaluation, and a
// multi-criterion ranking pipeline, all backed by a badger key-value
// store per index.
//
// Engine is the top-level entry point, tying together the schema,
// on-disk store, and query evaluator for each named index, supporting
// many independently-schemad indices rather than one implicit global
// one.
package lantern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/ingest"
	"github.com/wizenheimer/lantern/query"
	"github.com/wizenheimer/lantern/schema"
	"github.com/wizenheimer/lantern/store"
	"github.com/wizenheimer/lantern/tokenizer"
	"github.com/wizenheimer/lantern/update"
)

// handle is one open index: its schema, stop-word set, and backing
// store.
type handle struct {
	schema *schema.Schema
	stop   tokenizer.StopWords
	store  *store.Store
}

// Engine owns a set of named indices rooted under a base directory, one
// badger database per index.
type Engine struct {
	mu      sync.RWMutex
	baseDir string
	logger  *slog.Logger
	indices map[string]*handle
}

// NewEngine returns an Engine whose indices are stored under baseDir. A
// nil logger defaults to slog.Default().
func NewEngine(baseDir string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{baseDir: baseDir, logger: logger, indices: make(map[string]*handle)}
}

// CreateIndex opens a fresh index named name with the given schema and
// stop-word set, persisting the schema to the index's store.
func (e *Engine) CreateIndex(name string, sch *schema.Schema, stop tokenizer.StopWords) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indices[name]; exists {
		return fmt.Errorf("%w: %q", ErrIndexExists, name)
	}

	st, err := store.Open(filepath.Join(e.baseDir, name), e.logger.With("index", name))
	if err != nil {
		return err
	}
	if err := st.PutSchema(sch, (*schema.Schema).EncodeTOML); err != nil {
		st.Close()
		return err
	}

	e.indices[name] = &handle{schema: sch, stop: stop, store: st}
	e.logger.Info("created index", "index", name)
	return nil
}

// OpenIndex reopens a previously created index, reloading its schema
// from the store.
func (e *Engine) OpenIndex(name string, stop tokenizer.StopWords) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indices[name]; exists {
		return nil
	}

	st, err := store.Open(filepath.Join(e.baseDir, name), e.logger.With("index", name))
	if err != nil {
		return err
	}
	raw, err := st.GetSchemaBytes()
	if err != nil {
		st.Close()
		return fmt.Errorf("lantern: open index %q: %w", name, err)
	}
	sch, err := schema.LoadTOML(raw)
	if err != nil {
		st.Close()
		return fmt.Errorf("lantern: open index %q: decode schema: %w", name, err)
	}

	e.indices[name] = &handle{schema: sch, stop: stop, store: st}
	e.logger.Info("opened index", "index", name)
	return nil
}

// CloseIndex releases the store backing name.
func (e *Engine) CloseIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.indices[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	delete(e.indices, name)
	return h.store.Close()
}

func (e *Engine) handle(name string) (*handle, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.indices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	return h, nil
}

// Commit resolves each raw document against the index's schema, stages
// it (and any removed ids) through an update.Builder, and applies the
// resulting batch to the store in one call (ingest.Resolve →
// update.Builder → store.Apply). A document that fails to resolve or
// stage is logged and skipped; the rest of the batch proceeds. The
// batch itself either commits whole or not at all.
func (e *Engine) Commit(ctx context.Context, name string, docs []map[string]any, removed []docid.ID) error {
	h, err := e.handle(name)
	if err != nil {
		return err
	}

	builder := update.NewBuilder(h.schema, h.stop)
	for _, raw := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := ingest.Resolve(h.schema, raw)
		if err != nil {
			e.logger.Warn("skipping document", "index", name, "error", err)
			continue
		}
		if err := builder.Add(doc); err != nil {
			e.logger.Warn("skipping document", "index", name, "id", doc.ID, "error", err)
			continue
		}
	}
	for _, id := range removed {
		builder.Remove(id)
	}

	batch, err := builder.Build()
	if err != nil {
		return err
	}
	if err := h.store.Apply(batch); err != nil {
		return err
	}
	e.logger.Info("committed batch", "index", name, "added", batch.Added.Len(), "removed", batch.Removed.Len())
	return nil
}

// Schema returns the schema the named index was created with.
func (e *Engine) Schema(name string) (*schema.Schema, error) {
	h, err := e.handle(name)
	if err != nil {
		return nil, err
	}
	return h.schema, nil
}

// Search runs q against the named index, on a consistent snapshot of
// its index and ranked map.
func (e *Engine) Search(ctx context.Context, name string, q query.Query) ([]query.Hit, error) {
	h, err := e.handle(name)
	if err != nil {
		return nil, err
	}

	idx, ranked, err := h.store.GetView()
	if err != nil {
		return nil, err
	}

	eng := &query.Engine{
		Index:  idx,
		Ranked: ranked,
		Schema: h.schema,
		Stop:   h.stop,
		Stored: h.store,
	}
	return eng.Search(ctx, q)
}

// Close releases every open index's store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for name, h := range e.indices {
		if err := h.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close index %q: %w", name, err))
		}
	}
	e.indices = make(map[string]*handle)
	return errors.Join(errs...)
}
