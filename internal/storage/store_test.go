package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokeromcodex/server/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *Store, roms []models.Rom) {
	t.Helper()
	require.NoError(t, store.BulkUpsertRoms(context.Background(), roms))
}

func TestQueryRomsPagination(t *testing.T) {
	store := newTestStore(t)
	var roms []models.Rom
	for i := 1; i <= 25; i++ {
		roms = append(roms, models.Rom{
			ID:   int64(i),
			Name: fmt.Sprintf("Hack %03d", i),
			Slug: fmt.Sprintf("hack-%03d", i),
		})
	}
	seed(t, store, roms)

	page1, total, err := store.QueryRoms(context.Background(), RomQuery{Offset: 0, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page1, 20)
	assert.Equal(t, "Hack 001", page1[0].Name, "ordered by name ascending")

	page2, total, err := store.QueryRoms(context.Background(), RomQuery{Offset: 20, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page2, 5)
}

func TestQueryRomsTermsMatchNameOrAuthor(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, []models.Rom{
		{ID: 1, Name: "Radical Red", Slug: "radical-red", Author: "soupercell"},
		{ID: 2, Name: "Unbound", Slug: "unbound", Author: "Skeli"},
		{ID: 3, Name: "Red Chapter", Slug: "red-chapter", Author: "Aethestode"},
	})

	byName, total, err := store.QueryRoms(context.Background(), RomQuery{Terms: []string{"red"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, byName, 2)

	byAuthor, total, err := store.QueryRoms(context.Background(), RomQuery{Terms: []string{"skeli"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Unbound", byAuthor[0].Name)

	// Terms combine with AND.
	both, total, err := store.QueryRoms(context.Background(), RomQuery{Terms: []string{"red", "chapter"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, both, 1)
	assert.Equal(t, "Red Chapter", both[0].Name)
}

func TestRomRoundTrip(t *testing.T) {
	store := newTestStore(t)
	rom := models.Rom{
		ID:          1,
		Name:        "Gaia",
		Slug:        "gaia",
		Console:     "GBA",
		Image:       "https://cdn.example.com/gaia.png",
		Gallery:     []string{"a.png", "b.png"},
		BaseGame:    []string{"FireRed"},
		Language:    []string{"English"},
		Status:      []string{"complete"},
		Content:     []string{"A new region awaits."},
		Version:     "3.2",
		Author:      "Spherical Ice",
		DateUpdated: "2023/05/09",
		Features: &models.Features{
			Qol:                []string{"Reusable TMs"},
			GameplayDifficulty: []string{"Medium"},
		},
		Links: []string{"https://example.com/gaia"},
	}
	require.NoError(t, store.UpsertRom(context.Background(), &rom))

	got, err := store.GetRomByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rom, *got)

	bySlug, err := store.GetRomBySlug(context.Background(), "gaia")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, rom.ID, bySlug.ID)
}

func TestGetRomMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetRomByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	bySlug, err := store.GetRomBySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, bySlug)
}

func TestDistinctFacets(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, []models.Rom{
		{ID: 1, Name: "A", Slug: "a", BaseGame: []string{"Emerald", "Ruby"}, Status: []string{"complete"},
			Features: &models.Features{Qol: []string{"Exp Share"}, GameplayDifficulty: []string{"Hard"}}},
		{ID: 2, Name: "B", Slug: "b", BaseGame: []string{"Emerald"}, Status: []string{"in-progress"},
			Features: &models.Features{Qol: []string{"Reusable TMs"}, GameplayDifficulty: []string{"Easy", "Hard"}}},
		{ID: 3, Name: "C", Slug: "c"},
	})

	opts, err := store.DistinctFacets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Emerald", "Ruby"}, opts.BaseGames)
	assert.Equal(t, []string{"complete", "in-progress"}, opts.Statuses)
	assert.Equal(t, []string{"Easy", "Hard"}, opts.Difficulties)
	assert.Equal(t, []string{"Exp Share", "Reusable TMs"}, opts.Features)
}

func TestAllRoms(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, []models.Rom{
		{ID: 2, Name: "B", Slug: "b"},
		{ID: 1, Name: "A", Slug: "a"},
	})

	all, err := store.AllRoms(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name)
}

func TestBulkUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, []models.Rom{{ID: 1, Name: "Old Name", Slug: "old"}})
	seed(t, store, []models.Rom{{ID: 1, Name: "New Name", Slug: "new"}})

	got, err := store.GetRomByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New Name", got.Name)

	_, total, err := store.QueryRoms(context.Background(), RomQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "upsert must replace, not duplicate")
}
