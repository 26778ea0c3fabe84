package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestKVStorage_UpsertPreservesCreatedAt(t *testing.T) {
	m := newTestManager(t)
	kv := m.kv
	ctx := context.Background()

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return first }

	isNew, err := kv.Upsert(ctx, "EODHD_API_KEY", "one", "quotes")
	require.NoError(t, err)
	assert.True(t, isNew)

	kv.now = func() time.Time { return first.Add(time.Hour) }
	isNew, err = kv.Upsert(ctx, "eodhd_api_key", "two", "quotes")
	require.NoError(t, err)
	assert.False(t, isNew, "keys are case-insensitive")

	pairs, err := kv.List(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "two", pairs[0].Value)
	assert.True(t, pairs[0].CreatedAt.Equal(first))
	assert.True(t, pairs[0].UpdatedAt.Equal(first.Add(time.Hour)))
}

func TestKVStorage_GetDelete(t *testing.T) {
	kv := newTestManager(t).KeyValueStorage()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "fred_api_key", "abc", ""))
	v, err := kv.Get(ctx, " FRED_API_KEY ")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	all, err := kv.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fred_api_key": "abc"}, all)

	require.NoError(t, kv.Delete(ctx, "fred_api_key"))
	assert.ErrorIs(t, kv.Delete(ctx, "fred_api_key"), interfaces.ErrKeyNotFound)

	_, err = kv.Upsert(ctx, "  ", "x", "")
	assert.Error(t, err)
}

func TestLoadVariablesFromFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "variables.toml"), []byte(`
[eodhd_api_key]
value = "quote-key"
description = "EODHD"

[serp_api_key]
value = ""
`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "variables"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "variables", "ai.toml"), []byte(`
[claude_api_key]
value = "claude-key"
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "variables", "broken.toml"), []byte(`not = [valid`), 0644))

	m := newTestManager(t)
	ctx := context.Background()

	assert.Equal(t, 2, m.LoadVariablesFromFiles(ctx, dir))

	kv := m.KeyValueStorage()
	v, err := kv.Get(ctx, "eodhd_api_key")
	require.NoError(t, err)
	assert.Equal(t, "quote-key", v)

	_, err = kv.Get(ctx, "serp_api_key")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound, "empty values are skipped")

	pairs, err := kv.List(ctx)
	require.NoError(t, err)
	for _, p := range pairs {
		if p.Key == "claude_api_key" {
			assert.Equal(t, "Loaded from ai.toml", p.Description)
		}
	}

	// Resolution falls through an unset environment to the store
	t.Setenv("QUOTE_PROVIDER_KEY", "")
	key, err := common.ResolveAPIKey(ctx, kv, "eodhd_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "quote-key", key)

	t.Setenv("QUOTE_PROVIDER_KEY", "from-env")
	key, err = common.ResolveAPIKey(ctx, kv, "eodhd_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}
