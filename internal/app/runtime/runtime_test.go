package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
	sqlitestorage "alertBot/internal/infrastructure/persistence/sqlite"
	"alertBot/internal/infrastructure/rulefile"
	"alertBot/internal/usecase/counters"
)

func writeRule(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadRegistry(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "commands/hype.json", `{"command": "!hype", "alias": ["!h"]}`)
	writeRule(t, root, "counters/death.json", `{"command": "!death", "message": "%value%"}`)
	writeRule(t, root, "commands/bad.json", `{`)

	registry, errs := LoadRegistry(rulefile.New(root), "")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrMalformedRule)

	_, ok := registry.Command("!h")
	assert.True(t, ok)
	_, ok = registry.Counter("!death")
	assert.True(t, ok)
}

func TestRestoreCounters_ImportsLegacyOnce(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "counters/death.json", `{"command": "!death", "alias": ["!d"]}`)
	writeRule(t, root, rulefile.LegacyCountersFile, `{"!death": 7}`)

	loader := rulefile.New(root)
	registry, errs := LoadRegistry(loader, "")
	require.Empty(t, errs)

	store, err := sqlitestorage.NewStore(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	counterStore := counters.NewStore(registry)
	restoreCounters(t.Context(), loader, store, counterStore)
	assert.Equal(t, int64(7), counterStore.Snapshot()["!death"])

	// el archivo viejo cambia pero la base ya manda
	writeRule(t, root, rulefile.LegacyCountersFile, `{"!death": 100}`)
	require.NoError(t, store.SaveCounters(t.Context(), map[string]int64{"!death": 9}))

	counterStore = counters.NewStore(registry)
	restoreCounters(t.Context(), loader, store, counterStore)
	assert.Equal(t, int64(9), counterStore.Snapshot()["!death"])
}

func TestTwitchHelpers(t *testing.T) {
	assert.Equal(t, "oauth:abc", formatTwitchOAuthToken("abc"))
	assert.Equal(t, "oauth:abc", formatTwitchOAuthToken("oauth:abc"))
	assert.Empty(t, formatTwitchOAuthToken(""))

	assert.Equal(t, "#zero", ensureTwitchChannel(" Zero "))
	assert.Equal(t, "#zero", ensureTwitchChannel("#zero"))
	assert.Empty(t, ensureTwitchChannel(""))
}
