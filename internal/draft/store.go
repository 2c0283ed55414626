// Package draft persists the collaboration form draft in a local bbolt file.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultKey is the single slot the form draft lives under.
const DefaultKey = "industry-collaboration-form-draft"

var bDrafts = []byte("drafts")

type Store struct {
	db  *bolt.DB
	key []byte
}

type OpenOptions struct {
	Path string // e.g. ".scalesite/drafts.db"
	Key  string
}

func Open(opt OpenOptions) (*Store, error) {
	if opt.Path == "" {
		return nil, errors.New("draft: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(opt.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(opt.Path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("draft: open %s: %w", opt.Path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bDrafts)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	key := opt.Key
	if key == "" {
		key = DefaultKey
	}
	return &Store{db: db, key: []byte(key)}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load decodes the stored draft into v. It reports false when nothing is
// stored. A value that no longer decodes is treated as absent.
func (s *Store) Load(ctx context.Context, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bDrafts)
		if b == nil {
			return nil
		}
		if got := b.Get(s.key); got != nil {
			raw = append([]byte(nil), got...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return false, err
	}
	if json.Unmarshal(raw, v) != nil {
		return false, nil
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("draft: encode: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bDrafts)
		if err != nil {
			return err
		}
		return b.Put(s.key, raw)
	})
}

func (s *Store) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bDrafts)
		if b == nil {
			return nil
		}
		return b.Delete(s.key)
	})
}
