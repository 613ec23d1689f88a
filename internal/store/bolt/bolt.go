// Package bolt implements the hostwatch backend contract on bbolt, the
// compiled-in default persistent engine. Buckets map one-to-one to storage
// domains.
package bolt

import (
	"bytes"
	"time"

	"github.com/golang/snappy"
	bbolt "go.etcd.io/bbolt"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/store"
)

// Value envelope markers. Every stored value is prefixed with one marker
// byte so compressed and raw values can coexist in the same bucket.
const (
	markerRaw    = 0x00
	markerSnappy = 0x01
)

// compressThreshold is the minimum value size worth compressing. Small
// values (settings, counters) gain nothing from snappy framing.
const compressThreshold = 64

// Options configure the bolt backend.
type Options struct {
	// Compress enables transparent snappy compression for values at or
	// above the size threshold. Reads handle both forms regardless.
	Compress bool

	// OpenTimeout bounds how long opening waits on the file lock.
	// Zero means one second.
	OpenTimeout time.Duration
}

// Backend stores domain/key/value records in a single bbolt file.
type Backend struct {
	path     string
	opts     Options
	db       *bbolt.DB
	readOnly bool
}

// New creates a bolt backend for the database file at path. SetUp opens
// the file.
func New(path string, opts Options) *Backend {
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = time.Second
	}
	return &Backend{path: path, opts: opts}
}

func (b *Backend) Name() string { return store.DefaultBackend }

// ReadOnly reports whether the database could only be opened without
// write access.
func (b *Backend) ReadOnly() bool { return b.readOnly }

// SetUp opens the database file and ensures the baseline domain buckets
// exist. When the file cannot be opened for writing it is reopened
// read-only so health checks can still inspect it.
func (b *Backend) SetUp() error {
	if b.db != nil {
		return nil
	}

	db, err := bbolt.Open(b.path, 0600, &bbolt.Options{Timeout: b.opts.OpenTimeout})
	if err != nil {
		ro, roErr := bbolt.Open(b.path, 0400, &bbolt.Options{
			Timeout:  b.opts.OpenTimeout,
			ReadOnly: true,
		})
		if roErr != nil {
			return hwerrors.NewBackendError(hwerrors.CodeBackendIO,
				"cannot open database "+b.path, err)
		}
		b.db = ro
		b.readOnly = true
		return nil
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, domain := range store.Domains {
			if _, err := tx.CreateBucketIfNotExists([]byte(domain)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO,
			"cannot create domain buckets", err)
	}

	b.db = db
	b.readOnly = false
	return nil
}

func (b *Backend) TearDown() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO, "close failed", err)
	}
	return nil
}

func (b *Backend) Get(domain, key string) (string, error) {
	if b.db == nil {
		return "", errNotOpen()
	}
	var value string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(domain))
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		decoded, err := decodeValue(raw)
		if err != nil {
			return err
		}
		value = decoded
		return nil
	})
	if err != nil {
		return "", hwerrors.NewBackendError(hwerrors.CodeBackendIO, "get failed", err)
	}
	return value, nil
}

func (b *Backend) Put(domain, key, value string) error {
	if b.db == nil {
		return errNotOpen()
	}
	if b.readOnly {
		return hwerrors.NewBackendError(hwerrors.CodeBackendReadOnly,
			"database is open read-only", nil)
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(domain))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), encodeValue(value, b.opts.Compress))
	})
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO, "put failed", err)
	}
	return nil
}

func (b *Backend) Remove(domain, key string) error {
	if b.db == nil {
		return errNotOpen()
	}
	if b.readOnly {
		return hwerrors.NewBackendError(hwerrors.CodeBackendReadOnly,
			"database is open read-only", nil)
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(domain))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO, "remove failed", err)
	}
	return nil
}

// Scan returns keys with the given prefix in bbolt's byte order. max caps
// the count; zero scans without bound.
func (b *Backend) Scan(domain, prefix string, max int) ([]string, error) {
	if b.db == nil {
		return nil, errNotOpen()
	}
	var keys []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(domain))
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
			if max > 0 && len(keys) >= max {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, hwerrors.NewBackendError(hwerrors.CodeBackendIO, "scan failed", err)
	}
	return keys, nil
}

func errNotOpen() error {
	return hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
		"database is not open", nil)
}

// encodeValue wraps a value in the storage envelope, compressing it when
// enabled and large enough to benefit.
func encodeValue(value string, compress bool) []byte {
	if compress && len(value) >= compressThreshold {
		encoded := snappy.Encode(nil, []byte(value))
		return append([]byte{markerSnappy}, encoded...)
	}
	return append([]byte{markerRaw}, value...)
}

// decodeValue unwraps the storage envelope.
func decodeValue(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	switch raw[0] {
	case markerSnappy:
		decoded, err := snappy.Decode(nil, raw[1:])
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	default:
		return string(raw[1:]), nil
	}
}
