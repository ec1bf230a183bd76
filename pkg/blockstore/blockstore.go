// Package blockstore is a local content-addressed store for encrypted
// blocks, keyed by their retrieval address. Identical content converges
// on identical addresses and ciphertext, so rewriting an existing
// address is always a harmless overwrite with the same bytes.
package blockstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/caskfs/cask/pkg/chk"
)

var log *logrus.Logger

// StoreConfig configures a Store.
type StoreConfig struct {
	Path          string // directory for the badger database
	MinimumFreeGB int    // refuse to open with less free space, 0 disables the check
	Logger        *logrus.Logger
}

// Store holds encrypted blocks in a badger database.
type Store struct {
	config StoreConfig
	db     *badger.DB
}

// New opens (creating if needed) the store at the configured path.
func New(config StoreConfig) (*Store, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	log = config.Logger

	if err := config.check(); err != nil {
		return nil, fmt.Errorf("error checking config for block store: %w", err)
	}

	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 100
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening badger at %s: %w", config.Path, err)
	}

	return &Store{config: config, db: db}, nil
}

// StoreBlock writes one encrypted block under its retrieval address.
// Its signature matches the encoder's block sink, so a *Store can be
// handed to an encode directly.
func (s *Store) StoreBlock(depth int, rec chk.Record, ciphertext []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rec.Query[:], ciphertext)
	})
	if err != nil {
		return fmt.Errorf("error storing block: %w", err)
	}
	log.WithFields(logrus.Fields{
		"depth": depth,
		"size":  len(ciphertext),
	}).Debug("stored block")
	return nil
}

// Put writes one ciphertext under the given address.
func (s *Store) Put(addr chk.Query, ciphertext []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(addr[:], ciphertext)
	})
	if err != nil {
		return fmt.Errorf("error writing block: %w", err)
	}
	return nil
}

// Block is one address/ciphertext pair for batch writes.
type Block struct {
	Query      chk.Query
	Ciphertext []byte
}

// PutBatch writes a set of blocks in one badger write batch, which is
// considerably faster than per-block transactions when publishing
// large files.
func (s *Store) PutBatch(blocks []Block) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, b := range blocks {
		if err := wb.Set(b.Query[:], b.Ciphertext); err != nil {
			return fmt.Errorf("error writing batch: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("error flushing batch: %w", err)
	}
	log.WithFields(logrus.Fields{
		"blocks": len(blocks),
	}).Debug("stored batch")
	return nil
}

// Get returns the ciphertext stored under addr.
func (s *Store) Get(addr chk.Query) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(addr[:])
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("block not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading block: %w", err)
	}
	return out, nil
}

// Has reports whether a block is stored under addr.
func (s *Store) Has(addr chk.Query) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(addr[:])
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking block: %w", err)
	}
	return true, nil
}

// GarbageCollect runs one badger value-log GC pass.
func (s *Store) GarbageCollect() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
