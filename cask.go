// Package cask turns files into content-addressed, convergently
// encrypted hash trees and canonical locators. The Cask handle wires a
// byte source, the tree encoder, and an optional local block store.
package cask

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/caskfs/cask/pkg/blockstore"
	"github.com/caskfs/cask/pkg/encoder"
	"github.com/caskfs/cask/pkg/locator"
)

// Config configures a Cask handle.
type Config struct {
	// StorePath, if set, enables the local block store: every encrypted
	// block of a publish is written there under its retrieval address.
	StorePath string
	// MinimumFreeGB is a free-space threshold for the block store.
	MinimumFreeGB int
	// Source opens paths for PublishFile. If nil, the local filesystem
	// is used.
	Source Source
	// Logger is an optional structured logger. If nil, a stderr logger
	// is created.
	Logger *logrus.Logger
}

// Cask publishes files and readers.
type Cask struct {
	config Config
	store  *blockstore.Store
	log    *logrus.Logger
}

// New creates a Cask handle. The block store is only opened when a
// store path is configured.
func New(conf Config) (*Cask, error) {
	if conf.Logger == nil {
		conf.Logger = logrus.New()
	}
	if conf.Source == nil {
		conf.Source = FileSource{}
	}

	c := &Cask{config: conf, log: conf.Logger}
	if conf.StorePath != "" {
		store, err := blockstore.New(blockstore.StoreConfig{
			Path:          conf.StorePath,
			MinimumFreeGB: conf.MinimumFreeGB,
			Logger:        conf.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating block store: %w", err)
		}
		c.store = store
	}
	return c, nil
}

// Close runs a value-log GC pass on the block store and releases it,
// if one is open.
func (c *Cask) Close() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.GarbageCollect(); err != nil {
		c.log.WithError(err).Warn("error during garbage collection")
	}
	return c.store.Close()
}

// Store returns the block store, or nil when none is configured.
func (c *Cask) Store() *blockstore.Store {
	return c.store
}

// PublishFile encodes the file at path and returns its locator.
func (c *Cask) PublishFile(path string) (string, error) {
	r, size, err := c.config.Source.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", path, err)
	}
	defer r.Close()

	loc, err := c.PublishReader(r, size)
	if err != nil {
		return "", fmt.Errorf("error publishing %s: %w", path, err)
	}
	return loc, nil
}

// PublishReader encodes exactly size bytes from r and returns the
// locator. When a block store is configured every block is persisted;
// otherwise the blocks are computed and discarded, which still yields
// the identical locator.
func (c *Cask) PublishReader(r io.Reader, size uint64) (string, error) {
	var sink encoder.BlockFunc
	if c.store != nil {
		sink = c.store.StoreBlock
	}

	root, err := encoder.Encode(r, size, sink)
	if err != nil {
		return "", err
	}

	loc := locator.Format(root)
	c.log.WithFields(logrus.Fields{
		"size":    size,
		"locator": loc,
	}).Info("published")
	return loc, nil
}
