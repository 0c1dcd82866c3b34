package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "alertbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestCounters_SaveOverwritesSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, store.SaveCounters(ctx, map[string]int64{"!death": 3, "!win": 1}))
	require.NoError(t, store.SaveCounters(ctx, map[string]int64{"!death": 4, "!win": 1}))

	got, err := store.LoadCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"!death": 4, "!win": 1}, got)
}

func TestImportCounters_OnlyOnceAndOnlyWhenEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	imported, err := store.ImportCounters(ctx, map[string]int64{"!death": 9})
	require.NoError(t, err)
	assert.True(t, imported)

	imported, err = store.ImportCounters(ctx, map[string]int64{"!death": 100})
	require.NoError(t, err)
	assert.False(t, imported)

	got, err := store.LoadCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"!death": 9}, got)
}

func TestImportCounters_SkipsWhenTableHasData(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	require.NoError(t, store.SaveCounters(ctx, map[string]int64{"!win": 2}))

	imported, err := store.ImportCounters(ctx, map[string]int64{"!win": 50})
	require.NoError(t, err)
	assert.False(t, imported)

	got, err := store.LoadCounters(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got["!win"])
}

func TestNotifications_SaveAndListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	first, err := store.SaveNotification(ctx, &domain.Notification{
		Type: domain.NotificationBits, Username: "ana", Amount: 500, CreatedAt: base,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = store.SaveNotification(ctx, &domain.Notification{
		Type: domain.NotificationRaid, Username: "friend", Amount: 12,
		Metadata: map[string]string{"greeting": "!friend"}, CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	list, err := store.ListNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.NotificationRaid, list[0].Type)
	assert.Equal(t, "!friend", list[0].Metadata["greeting"])
	assert.Equal(t, "ana", list[1].Username)
	assert.InDelta(t, 500, list[1].Amount, 0.001)

	_, err = store.SaveNotification(ctx, nil)
	assert.Error(t, err)
}
