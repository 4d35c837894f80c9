// Package cache stores filter results so that re-running the same filter
// with the same parameters on the same pixels skips the plugin call.
//
// Entries live in BadgerDB with a TTL and are zstd-compressed. Keys are
// derived from the plugin fingerprint, the normalised parameters, the
// dimensions and the input pixels.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"imgproc.szuro.net/internal/config"
	"imgproc.szuro.net/internal/logger"
	"imgproc.szuro.net/internal/metrics"
	"imgproc.szuro.net/pkg/pixel"
)

const keyPrefix = "result/"

// ResultCache is a persistent map from (filter, params, input) to output
// pixels.
type ResultCache struct {
	db  *badger.DB
	ttl time.Duration
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens the cache described by conf.
func Open(conf config.CacheConf) (*ResultCache, error) {
	opts := badger.DefaultOptions(conf.Dir).WithLogger(logger.Default())
	if conf.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(logger.Default())
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	logger.Debug("Opened result cache",
		slog.String("dir", conf.Dir),
		slog.Bool("in_memory", conf.InMemory),
		slog.Int64("ttl_hours", conf.TTL))
	return &ResultCache{
		db:  db,
		ttl: time.Duration(conf.TTL) * time.Hour,
		enc: enc,
		dec: dec,
	}, nil
}

// Key identifies the result of running the plugin identified by
// fingerprint with params on buf.
func Key(fingerprint, params string, buf *pixel.Buffer) []byte {
	d := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], buf.Width())
	binary.LittleEndian.PutUint32(dims[4:], buf.Height())

	writeField(d, []byte(fingerprint))
	writeField(d, []byte(params))
	d.Write(dims[:])
	d.Write(buf.Bytes())

	key := make([]byte, 0, len(keyPrefix)+8+8)
	key = append(key, keyPrefix...)
	key = append(key, dims[:]...)
	return binary.BigEndian.AppendUint64(key, d.Sum64())
}

// length-prefixed so that ("ab","c") and ("a","bc") differ
func writeField(d *xxhash.Digest, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	d.Write(n[:])
	d.Write(b)
}

// Get copies a cached result into buf. It reports false on a miss, and
// treats corrupt or mis-sized entries as misses.
func (c *ResultCache) Get(key []byte, buf *pixel.Buffer) (bool, error) {
	var compressed []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("result cache read failed: %w", err)
	}

	pix, err := c.dec.DecodeAll(compressed, make([]byte, 0, buf.Len()))
	if err != nil || len(pix) != buf.Len() {
		logger.Warn("Discarding unusable cache entry", slog.Any("error", err), slog.Int("len", len(pix)))
		metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		return false, nil
	}

	img, err := buf.Borrow()
	if err != nil {
		return false, err
	}
	defer img.Release()
	copy(img.Pix, pix)

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

// Put stores the pixels of buf under key.
func (c *ResultCache) Put(key []byte, buf *pixel.Buffer) error {
	value := c.enc.EncodeAll(buf.Bytes(), nil)
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, value).WithTTL(c.ttl))
	})
	if err != nil {
		return fmt.Errorf("result cache write failed: %w", err)
	}
	return nil
}

func (c *ResultCache) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}
