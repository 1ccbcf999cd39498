package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, zap.NewNop(), "test-secret", time.Hour), store
}

func TestLoginCreatesAndReuses(t *testing.T) {
	svc, _ := newTestService(t)

	token, user, err := svc.Login(context.Background(), "github", "octocat", "Octo Cat")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Octo Cat", user.DisplayName)
	assert.NotEmpty(t, token)

	_, again, err := svc.Login(context.Background(), "github", "octocat", "ignored")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID, "second login must resolve to the same user")
}

func TestResolveRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	token, user, err := svc.Login(context.Background(), "github", "octocat", "")
	require.NoError(t, err)

	got, err := svc.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got)
}

func TestResolveRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := New(nil, zap.NewNop(), "other-secret", time.Hour)
	token, err := other.issueToken("someone")
	require.NoError(t, err)
	_, err = svc.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signing key must be rejected")
}

func TestLinkMergesIdentities(t *testing.T) {
	svc, _ := newTestService(t)

	_, user, err := svc.Login(context.Background(), "github", "octocat", "Octo")
	require.NoError(t, err)

	created, err := svc.Link(context.Background(), user.ID, "discord", "octo#1")
	require.NoError(t, err)
	assert.True(t, created)

	// Logging in with the linked identity resolves to the same user.
	_, viaDiscord, err := svc.Login(context.Background(), "discord", "octo#1", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, viaDiscord.ID)

	// Re-linking the same identity to the same user is benign.
	created, err = svc.Link(context.Background(), user.ID, "discord", "octo#1")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLinkRejectsForeignIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	_, alice, err := svc.Login(context.Background(), "github", "alice", "Alice")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "github", "bob", "Bob")
	require.NoError(t, err)

	_, err = svc.Link(context.Background(), alice.ID, "github", "bob")
	assert.True(t, errors.Is(err, storage.ErrIdentityTaken))
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService(t)

	_, user, err := svc.Login(context.Background(), "github", "octocat", "Octo")
	require.NoError(t, err)
	_, err = svc.Link(context.Background(), user.ID, "discord", "octo#1")
	require.NoError(t, err)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, user.ID, profile.User.ID)
	assert.Len(t, profile.Identities, 2)

	missing, err := svc.Profile(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
