package blobstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
)

var ErrNotFound = errors.New("blob not found")

// Store is the blob-store contract the media pipeline writes through.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string, publicRead bool) error
	Get(ctx context.Context, key string) ([]byte, BlobMeta, error)
}

// BlobMeta is stored alongside the bytes.
type BlobMeta struct {
	ContentType string `json:"content_type"`
	PublicRead  bool   `json:"public_read"`
}

// BadgerStore keeps blobs in an embedded BadgerDB. Bytes live under "obj:" and
// metadata under "meta:", written in one transaction.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Put writes the blob and its metadata atomically.
func (s *BadgerStore) Put(ctx context.Context, key string, data []byte, contentType string, publicRead bool) error {
	_, span := otel.Tracer("chatroom-service/blobstore").Start(ctx, "blobstore.put")
	defer span.End()

	meta, err := json.Marshal(BlobMeta{ContentType: contentType, PublicRead: publicRead})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(objKey(key), data); err != nil {
			return err
		}
		return txn.Set(metaKey(key), meta)
	})
}

// Get reads a blob back. Returns ErrNotFound for unknown keys.
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, BlobMeta, error) {
	var data []byte
	var meta BlobMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(objKey(key))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(metaKey(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &meta)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, BlobMeta{}, ErrNotFound
	}
	if err != nil {
		return nil, BlobMeta{}, err
	}
	return data, meta, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func objKey(key string) []byte  { return []byte("obj:" + key) }
func metaKey(key string) []byte { return []byte("meta:" + key) }
