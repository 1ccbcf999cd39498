package collection

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/models"
	"github.com/pokeromcodex/server/internal/storage"
)

// newTestStore opens a real SQLite store in a temp dir and seeds one
// user and a few roms.
func newTestStore(t *testing.T) (*storage.Store, string) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	user, err := store.CreateUserWithIdentity(context.Background(), "tester", "github", "tester-1")
	require.NoError(t, err)

	roms := []models.Rom{
		{ID: 1, Name: "Radical Red", Slug: "radical-red", BaseGame: []string{"FireRed"}},
		{ID: 2, Name: "Unbound", Slug: "unbound", BaseGame: []string{"FireRed"}},
		{ID: 3, Name: "Gaia", Slug: "gaia", BaseGame: []string{"FireRed"}},
	}
	require.NoError(t, store.BulkUpsertRoms(context.Background(), roms))

	return store, user.ID
}

func TestAddDuplicateIsBenign(t *testing.T) {
	store, userID := newTestStore(t)
	svc := New(store, zap.NewNop())

	first := svc.Add(context.Background(), userID, 1)
	assert.True(t, first.Success)
	assert.False(t, first.AlreadyExists)

	second := svc.Add(context.Background(), userID, 1)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyExists)

	assert.Equal(t, 1, svc.Count(context.Background(), userID))
}

func TestRemove(t *testing.T) {
	store, userID := newTestStore(t)
	svc := New(store, zap.NewNop())

	svc.Add(context.Background(), userID, 2)

	res := svc.Remove(context.Background(), userID, 2)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyRemoved)

	res = svc.Remove(context.Background(), userID, 2)
	assert.True(t, res.Success)
	assert.True(t, res.AlreadyRemoved)
}

func TestIsMember(t *testing.T) {
	store, userID := newTestStore(t)
	svc := New(store, zap.NewNop())

	assert.False(t, svc.IsMember(context.Background(), userID, 3))
	svc.Add(context.Background(), userID, 3)
	assert.True(t, svc.IsMember(context.Background(), userID, 3))
}

func TestListForUserJoinsRoms(t *testing.T) {
	store, userID := newTestStore(t)
	svc := New(store, zap.NewNop())

	svc.Add(context.Background(), userID, 1)
	svc.Add(context.Background(), userID, 2)

	items := svc.ListForUser(context.Background(), userID)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, userID, item.UserID)
		assert.NotEmpty(t, item.Rom.Name)
		assert.Equal(t, []string{"FireRed"}, item.Rom.BaseGame)
	}
}

func TestUpdateNotes(t *testing.T) {
	store, userID := newTestStore(t)
	svc := New(store, zap.NewNop())

	assert.False(t, svc.UpdateNotes(context.Background(), userID, 1, "x"), "notes on a missing row report not found")

	svc.Add(context.Background(), userID, 1)
	assert.True(t, svc.UpdateNotes(context.Background(), userID, 1, "beat the league"))

	items := svc.ListForUser(context.Background(), userID)
	require.Len(t, items, 1)
	assert.Equal(t, "beat the league", items[0].Notes)
}

func TestMalformedInputShortCircuits(t *testing.T) {
	store, userID := newTestStore(t)
	svc := New(store, zap.NewNop())

	assert.False(t, svc.Add(context.Background(), "", 1).Success)
	assert.False(t, svc.Add(context.Background(), userID, 0).Success)
	assert.False(t, svc.Remove(context.Background(), "", 1).Success)
	assert.False(t, svc.IsMember(context.Background(), userID, -1))
	assert.Empty(t, svc.ListForUser(context.Background(), ""))
}
