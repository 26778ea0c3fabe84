package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// KVStorage holds provider keys and other variables. Keys are
// case-insensitive so EODHD_API_KEY and eodhd_api_key resolve the same entry.
type KVStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

var _ interfaces.KeyValueStorage = (*KVStorage)(nil)

// NewKVStorage creates the variables store on an open connection
func NewKVStorage(db *BadgerDB, logger arbor.ILogger) *KVStorage {
	return &KVStorage{db: db, logger: logger, now: time.Now}
}

func variableKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// find loads a single variable; ErrKeyNotFound when absent
func (s *KVStorage) find(key string) (interfaces.KeyValuePair, error) {
	var pair interfaces.KeyValuePair
	switch err := s.db.Store().Get(key, &pair); {
	case errors.Is(err, badgerhold.ErrNotFound):
		return pair, interfaces.ErrKeyNotFound
	case err != nil:
		return pair, fmt.Errorf("read variable %q: %w", key, err)
	}
	return pair, nil
}

func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.find(variableKey(key))
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

func (s *KVStorage) Set(ctx context.Context, key, value, description string) error {
	_, err := s.Upsert(ctx, key, value, description)
	return err
}

// Upsert writes a variable, keeping the original CreatedAt on overwrite.
// Reports whether the key was new.
func (s *KVStorage) Upsert(ctx context.Context, key, value, description string) (bool, error) {
	id := variableKey(key)
	if id == "" {
		return false, errors.New("variable key is required")
	}

	ts := s.now()
	created := ts

	existing, err := s.find(id)
	isNew := errors.Is(err, interfaces.ErrKeyNotFound)
	switch {
	case err == nil:
		created = existing.CreatedAt
	case !isNew:
		return false, err
	}

	record := &interfaces.KeyValuePair{
		Key:         id,
		Value:       value,
		Description: description,
		CreatedAt:   created,
		UpdatedAt:   ts,
	}
	if err := s.db.Store().Upsert(id, record); err != nil {
		return false, fmt.Errorf("write variable %q: %w", id, err)
	}

	s.logger.Trace().Str("key", id).Bool("new", isNew).Msg("Variable stored")
	return isNew, nil
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	id := variableKey(key)
	switch err := s.db.Store().Delete(id, &interfaces.KeyValuePair{}); {
	case errors.Is(err, badgerhold.ErrNotFound):
		return interfaces.ErrKeyNotFound
	case err != nil:
		return fmt.Errorf("delete variable %q: %w", id, err)
	}
	return nil
}

// List returns every variable, most recently updated first
func (s *KVStorage) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	var pairs []interfaces.KeyValuePair
	query := badgerhold.Where("Key").Ne("").SortBy("UpdatedAt").Reverse()
	if err := s.db.Store().Find(&pairs, query); err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	return pairs, nil
}

func (s *KVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	pairs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		values[p.Key] = p.Value
	}
	return values, nil
}
