// Package store provides the durable client-side key-value store.
//
// It holds the auth token, the anonymous user identifier, and cached
// session listings under a stable namespaced key scheme ("creo:..."),
// backed by BadgerDB. Storage failures are logged and treated as no-ops:
// reads return zero values and writes are dropped, so callers never crash
// on storage problems.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Namespaced keys for all persisted values.
const (
	KeyAuthToken           = "creo:auth_token"
	KeyAnonymousUserID     = "creo:anonymous_user_id"
	KeyAnonymousRegistered = "creo:anonymous_registered"
	KeySessionsCache       = "creo:sessions"
)

// Store is the persistent key-value store.
// It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option configures the store.
type Option func(*options)

type options struct {
	inMemory bool
	logger   *slog.Logger
}

// WithLogger sets the logger used for storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInMemory opens an in-memory database with no disk persistence.
// Useful for testing.
func WithInMemory() Option {
	return func(o *options) { o.inMemory = true }
}

// Open opens (or creates) the store at the given directory.
func Open(dir string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	badgerOpts := badger.DefaultOptions(dir)
	if o.inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Badger's own logging is noisy at INFO; keep it out of our output.
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", dir, err)
	}

	return &Store{db: db, logger: o.logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key and whether it was present.
// Storage failures are logged and reported as absent.
func (s *Store) Get(key string) (string, bool) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false
	}
	if err != nil {
		s.logError("get", key, err)
		return "", false
	}
	return value, true
}

// Set stores a value under key. Failures are logged and dropped.
func (s *Store) Set(key, value string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		s.logError("set", key, err)
	}
}

// Remove deletes a key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		s.logError("remove", key, err)
	}
}

// Clear removes all persisted values.
func (s *Store) Clear() {
	if err := s.db.DropAll(); err != nil {
		s.logError("clear", "*", err)
	}
}

// GetJSON unmarshals the JSON blob stored under key into v.
// Returns false when the key is absent or the blob cannot be decoded.
func (s *Store) GetJSON(key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logError("decode", key, err)
		return false
	}
	return true
}

// SetJSON stores v as a JSON blob under key.
func (s *Store) SetJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logError("encode", key, err)
		return
	}
	s.Set(key, string(data))
}

// Token returns the stored auth token, or empty when not authenticated.
// Satisfies the api.TokenSource interface.
func (s *Store) Token() string {
	token, _ := s.Get(KeyAuthToken)
	return token
}

// SetToken persists the auth token. An empty token removes it.
func (s *Store) SetToken(token string) {
	if token == "" {
		s.Remove(KeyAuthToken)
		return
	}
	s.Set(KeyAuthToken, token)
}

// AnonymousUserID returns the stable anonymous user identifier,
// generating and persisting a new one on first use.
func (s *Store) AnonymousUserID() string {
	if id, ok := s.Get(KeyAnonymousUserID); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	s.Set(KeyAnonymousUserID, id)
	return id
}

// AnonymousRegistered reports whether the anonymous user has already been
// migrated to an authenticated account.
func (s *Store) AnonymousRegistered() bool {
	v, _ := s.Get(KeyAnonymousRegistered)
	return v == "true"
}

// SetAnonymousRegistered marks the anonymous user as migrated.
func (s *Store) SetAnonymousRegistered(registered bool) {
	if registered {
		s.Set(KeyAnonymousRegistered, "true")
		return
	}
	s.Remove(KeyAnonymousRegistered)
}

func (s *Store) logError(op, key string, err error) {
	if s.logger != nil {
		s.logger.Warn("storage operation failed", "op", op, "key", key, "error", err)
	}
}
