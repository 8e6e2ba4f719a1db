package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/wizenheimer/lantern/docid"
	"github.com/wizenheimer/lantern/fstindex"
	"github.com/wizenheimer/lantern/rankedmap"
	"github.com/wizenheimer/lantern/schema"
	"github.com/wizenheimer/lantern/update"
)

// ErrNotFound is returned when a requested document or attribute is
// absent.
var ErrNotFound = errors.New("store: not found")

// ErrBatchTooLarge is returned by Apply when a batch exceeds what one
// badger transaction can hold; the batch is discarded and the prior
// committed state is preserved. Callers should split the batch and
// retry.
var ErrBatchTooLarge = errors.New("store: batch too large")

// Store binds an index's schema, FST token dictionary, ranked map, and
// stored document fields to a single badger database. Apply commits a
// whole batch inside one transaction: the index and ranked map operands
// are folded against the committed state in memory (see merge.go) and
// written back together with the batch's stored fields, so a concurrent
// reader observes either the pre-commit or the post-commit state, never
// a partial one.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// writeMu serializes Apply: one writer at a time per index. Reads
	// run concurrently through badger's snapshot transactions.
	writeMu sync.Mutex
}

// Open opens (creating if necessary) a badger database rooted at dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(slogBadgerLogger{logger}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %q: %w", dir, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutSchema commits sch's TOML-serializable declarations under the
// reserved schema key.
func (s *Store) PutSchema(sch *schema.Schema, encode func(*schema.Schema) ([]byte, error)) error {
	data, err := encode(sch)
	if err != nil {
		return fmt.Errorf("store: encode schema: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(schemaKey, data)
	})
}

// GetSchemaBytes returns the raw bytes committed under the reserved
// schema key.
func (s *Store) GetSchemaBytes() ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(schemaKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	return out, err
}

// GetIndex reads the currently-committed fstindex.Index. An index that
// has never seen a commit reads back empty.
func (s *Store) GetIndex() (*fstindex.Index, error) {
	var out *fstindex.Index
	err := s.db.View(func(txn *badger.Txn) error {
		var viewErr error
		out, viewErr = readIndex(txn)
		return viewErr
	})
	return out, err
}

// GetView reads the committed index and ranked map together, inside one
// read transaction, so a query observes a consistent pair even while a
// batch commits concurrently.
func (s *Store) GetView() (*fstindex.Index, *rankedmap.RankedMap, error) {
	var (
		idx    *fstindex.Index
		ranked *rankedmap.RankedMap
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var viewErr error
		if idx, viewErr = readIndex(txn); viewErr != nil {
			return viewErr
		}
		ranked, viewErr = readRankedMap(txn)
		return viewErr
	})
	if err != nil {
		return nil, nil, err
	}
	return idx, ranked, nil
}

// GetRankedMap reads the currently-committed rankedmap.RankedMap.
func (s *Store) GetRankedMap() (*rankedmap.RankedMap, error) {
	var out *rankedmap.RankedMap
	err := s.db.View(func(txn *badger.Txn) error {
		var viewErr error
		out, viewErr = readRankedMap(txn)
		return viewErr
	})
	return out, err
}

// PutDocumentFields commits a document's stored attribute values, keyed
// individually so a later partial update need not rewrite the whole
// document.
func (s *Store) PutDocumentFields(id docid.ID, fields map[schema.Attr]string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return putDocumentFields(txn, id, fields)
	})
}

// GetDocumentFields returns every stored attribute value committed for
// id.
func (s *Store) GetDocumentFields(id docid.ID) (map[schema.Attr]string, error) {
	out := make(map[schema.Attr]string)
	prefix := DocumentPrefix(id)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			attr := schema.Attr(binary.BigEndian.Uint16(key[9:11]))
			err := item.Value(func(val []byte) error {
				out[attr] = string(val)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// DeleteDocumentFields removes every stored attribute committed for id.
func (s *Store) DeleteDocumentFields(id docid.ID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return deleteDocumentFields(txn, id)
	})
}

// Apply commits one update.Batch atomically. Inside a single
// transaction it reads the committed index and ranked map, folds the
// batch's operands over them in order (removals before additions, the
// order Batch.Ops returns), prefix-deletes every touched document's
// stored fields, writes the batch's stored fields, and writes the new
// index and ranked map back. Badger's per-key MergeOperator cannot host
// this fold — its merge function must be associative, and the ordered
// removed-then-updated operand pair is not — so the merge happens here,
// serialized by writeMu, as an in-memory read-modify-write (see
// merge.go).
func (s *Store) Apply(batch *update.Batch) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		index, ranked, err := applyOps(txn, batch.Ops())
		if err != nil {
			return err
		}

		indexBytes, err := index.Encode()
		if err != nil {
			return fmt.Errorf("store: encode merged index: %w", err)
		}
		if err := txn.Set(indexKey, indexBytes); err != nil {
			return err
		}
		if err := txn.Set(rankedMapKey, ranked.Encode()); err != nil {
			return err
		}

		// Range-delete every touched document's stored fields before
		// rewriting: last write wins for re-indexed documents, and
		// removed documents leave nothing behind.
		err = forEachID(batch.Touched, func(id docid.ID) error {
			return deleteDocumentFields(txn, id)
		})
		if err != nil {
			return err
		}

		for id, fields := range batch.Stored {
			if err := putDocumentFields(txn, id, fields); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %v", ErrBatchTooLarge, err)
	}
	return err
}

// forEachID adapts DocIds.ForEach to an error-returning visitor.
func forEachID(ids *update.DocIds, visit func(docid.ID) error) error {
	var firstErr error
	ids.ForEach(func(id docid.ID) {
		if firstErr == nil {
			firstErr = visit(id)
		}
	})
	return firstErr
}

func putDocumentFields(txn *badger.Txn, id docid.ID, fields map[schema.Attr]string) error {
	for attr, value := range fields {
		if err := txn.Set(DocumentKeyAttr(id, attr), []byte(value)); err != nil {
			return err
		}
	}
	return nil
}

func deleteDocumentFields(txn *badger.Txn, id docid.ID) error {
	prefix := DocumentPrefix(id)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// slogBadgerLogger adapts *slog.Logger to badger.Logger, the interface
// badger.Options.WithLogger expects (Errorf/Warningf/Infof/Debugf), so
// badger's own diagnostics flow through the same structured logger as
// the rest of the engine.
type slogBadgerLogger struct {
	logger *slog.Logger
}

func (l slogBadgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l slogBadgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l slogBadgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l slogBadgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
