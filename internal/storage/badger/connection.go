package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB manages the in-memory Badger store that holds loaded variables
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewBadgerDB opens an in-memory Badger database. Variables are reloaded
// from variables.toml on every start, so nothing is written to disk.
func NewBadgerDB(logger arbor.ILogger) (*BadgerDB, error) {
	logger.Debug().Msg("Opening in-memory Badger database")

	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil) // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerDB{
		store:  store,
		logger: logger,
	}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
