// Package secretstore keeps gateway credentials in an encrypted-at-rest
// Badger database, separate from the plain JSON settings files. The
// encryption itself comes from Badger's options (value log plus key
// registry), not from this wrapper.
package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Store is a small KV wrapper around Badger for secret fields.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path string
	// EncryptionKey is 32 bytes. Nil opens the database unencrypted,
	// acceptable for paper trading only.
	EncryptionKey []byte
	ReadOnly      bool
}

func Open(opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger requires an index cache for encrypted workloads.
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errors.New("secretstore: not opened")
	}
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return "", false, errors.New("secretstore: key is empty")
	}

	var out string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}
	return out, found, nil
}

func (s *Store) Set(key, val string) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return errors.New("secretstore: key is empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(val))
	})
}

func fieldKey(gateway, field string) string {
	return "gateway:" + gateway + ":" + field
}

// SaveFields stores the secret fields of one gateway's connect form.
// Empty values are skipped so a blank form does not erase saved keys.
func (s *Store) SaveFields(gateway string, fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := s.Set(fieldKey(gateway, name), value); err != nil {
			return err
		}
	}
	return nil
}

// LoadFields returns the stored secret values for the named fields.
// Fields that were never saved are simply absent from the result.
func (s *Store) LoadFields(gateway string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		value, found, err := s.Get(fieldKey(gateway, name))
		if err != nil {
			return nil, err
		}
		if found {
			out[name] = value
		}
	}
	return out, nil
}

// ParseKey decodes a 32-byte key from hex (with or without 0x) or
// base64. An empty input returns nil, meaning no encryption.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) == 32 {
			return b, nil
		}
		return nil, errors.Errorf("secretstore: decoded key length must be 32, got %d", len(b))
	}

	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, errors.Errorf("secretstore: decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("secretstore: key must be 32 bytes, hex or base64 encoded")
}
