package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
	tokenKey      = []byte("token")
)

// BoltStore is a TokenStore backed by a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the token database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("token path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Token(ctx context.Context) (string, bool, error) {
	var token string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		// the slice is only valid inside the transaction
		token = string(bucket.Get(tokenKey))
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}

	return token, token != "", nil
}

func (s *BoltStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		if err := bucket.Put(tokenKey, []byte(token)); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		return nil
	})
}

// Delete removes the token. Deleting when logged out is a no-op.
func (s *BoltStore) Delete(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		if err := bucket.Delete(tokenKey); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		return nil
	})
}

// SessionFile is a TokenStore that opens the bbolt file for each operation.
// bbolt holds an exclusive file lock while open, so a long-running client
// uses SessionFile to let other processes log in and out meanwhile.
type SessionFile struct {
	Path string
}

func (f SessionFile) with(fn func(*BoltStore) error) error {
	s, err := OpenBolt(f.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (f SessionFile) Token(ctx context.Context) (token string, ok bool, err error) {
	err = f.with(func(s *BoltStore) error {
		token, ok, err = s.Token(ctx)
		return err
	})
	return token, ok, err
}

func (f SessionFile) Save(ctx context.Context, token string) error {
	return f.with(func(s *BoltStore) error { return s.Save(ctx, token) })
}

func (f SessionFile) Delete(ctx context.Context) error {
	return f.with(func(s *BoltStore) error { return s.Delete(ctx) })
}
