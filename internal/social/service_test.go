package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/pkg/models"
)

type fixture struct {
	svc   *Service
	users *database.UserRepository
	words *database.WordRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := database.NewUserRepository(db)
	words := database.NewWordRepository(db)
	svc := NewService(users, database.NewFriendRepository(db), words, logger.Nop())

	ctx := context.Background()
	for id, name := range map[int64]string{1: "anna", 2: "ben", 3: "carla"} {
		require.NoError(t, users.Upsert(ctx, &models.User{ID: id, Username: name}))
	}
	require.NoError(t, svc.SetDisplayName(ctx, 1, "Anna"))
	require.NoError(t, svc.SetDisplayName(ctx, 2, "Ben"))
	return fixture{svc: svc, users: users, words: words}
}

func befriend(t *testing.T, f fixture, from int64, toName string, to int64) {
	t.Helper()
	req, err := f.svc.SendRequest(context.Background(), from, toName)
	require.NoError(t, err)
	_, err = f.svc.Accept(context.Background(), to, req.ID)
	require.NoError(t, err)
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName("Jürgen_92"))
	assert.ErrorIs(t, ValidateDisplayName("ab"), ErrInvalidName)
	assert.ErrorIs(t, ValidateDisplayName("with space"), ErrInvalidName)
	assert.ErrorIs(t, ValidateDisplayName("abcdefghijklmnopqrstuvwxyz"), ErrInvalidName)
}

func TestDisplayNamesAreUniqueIgnoringCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SetDisplayName(ctx, 3, "ANNA"), ErrNameTaken)
	assert.NoError(t, f.svc.SetDisplayName(ctx, 1, "anna"))
	require.NoError(t, f.svc.SetDisplayName(ctx, 3, "Annika"))

	found, err := f.svc.Search(ctx, 1, "ann")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(3), found[0].ID)
}

func TestFriendRequestFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, 3, "Anna")
	assert.ErrorIs(t, err, ErrNoDisplayName)
	_, err = f.svc.SendRequest(ctx, 1, "anna")
	assert.ErrorIs(t, err, ErrSelfRequest)
	_, err = f.svc.SendRequest(ctx, 1, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	req, err := f.svc.SendRequest(ctx, 1, "ben")
	require.NoError(t, err)
	_, err = f.svc.SendRequest(ctx, 1, "Ben")
	assert.ErrorIs(t, err, ErrRequestExists)
	_, err = f.svc.SendRequest(ctx, 2, "Anna")
	assert.ErrorIs(t, err, ErrRequestExists)

	pending, err := f.svc.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Anna", pending[0].FromDisplayName)

	_, err = f.svc.Accept(ctx, 1, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Accept(ctx, 2, "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = f.svc.Accept(ctx, 2, req.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, 2, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	friends, err := f.svc.Friends(ctx, 1)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "Ben", friends[0].DisplayName)

	_, err = f.svc.SendRequest(ctx, 2, "anna")
	assert.ErrorIs(t, err, ErrAlreadyFriends)

	require.NoError(t, f.svc.RemoveFriend(ctx, 1, 2))
	assert.ErrorIs(t, f.svc.RemoveFriend(ctx, 1, 2), ErrNotFriends)
	_, err = f.svc.SendRequest(ctx, 2, "anna")
	assert.NoError(t, err)
}

func TestDeclineDeletesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SendRequest(ctx, 1, "Ben")
	require.NoError(t, err)
	_, err = f.svc.Decline(ctx, 2, req.ID)
	require.NoError(t, err)

	pending, err := f.svc.Pending(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)
	_, err = f.svc.SendRequest(ctx, 1, "Ben")
	assert.NoError(t, err)
}

func TestFriendWordsAndImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, w := range []models.Word{
		{UserID: 2, German: "Baum", Spanish: "árbol", Type: models.TypeNoun, Gender: "m"},
		{UserID: 2, German: "gehen", Spanish: "ir", Type: models.TypeVerb},
	} {
		w := w
		require.NoError(t, f.words.Create(ctx, &w))
	}
	require.NoError(t, f.words.Create(ctx, &models.Word{UserID: 1, German: "baum", Spanish: "árbol", Type: models.TypeNoun}))

	_, err := f.svc.FriendWords(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotFriends)
	_, err = f.svc.ImportWords(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotFriends)

	befriend(t, f, 1, "Ben", 2)

	words, err := f.svc.FriendWords(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, words, 2)

	res, err := f.svc.ImportWords(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 1, Skipped: 1}, res)

	own, err := f.words.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "gehen", own[1].German)
	assert.Equal(t, "Ben", own[1].ImportedFrom)
	assert.True(t, own[1].IsImported())
}
