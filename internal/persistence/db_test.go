package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/regime-world/internal/engine"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
)

func openTestDB(t *testing.T) (*DB, *time.Time) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "games.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := time.Unix(1_700_000_000, 0)
	db.now = func() time.Time { return clock }
	return db, &clock
}

func TestSaveLoadGame(t *testing.T) {
	db, _ := openTestDB(t)
	rs := rules.Default()
	src := entropy.New(2)
	w := engine.CreateWorld(4, rs, src)
	engine.Step(w, rs, src, nil)

	require.NoError(t, db.SaveGame("tok", w))
	back, err := db.LoadGame("tok")
	require.NoError(t, err)
	assert.Equal(t, w, back)

	// Saving again replaces the row.
	engine.Step(w, rs, src, nil)
	require.NoError(t, db.SaveGame("tok", w))
	games, err := db.ListGames(10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 2, games[0].Step)
	assert.Equal(t, w.ID, games[0].WorldID)

	size, err := db.StorageSize()
	require.NoError(t, err)
	assert.Greater(t, size, uint64(0))
}

func TestLoadGame_Missing(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := db.LoadGame("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.TouchGame("nope"), ErrNotFound)
}

func TestExpiryAndTouch(t *testing.T) {
	db, clock := openTestDB(t)
	w := engine.CreateWorld(2, rules.Default(), entropy.New(1))
	require.NoError(t, db.SaveGame("a", w))
	require.NoError(t, db.SaveGame("b", w))

	*clock = clock.Add(50 * time.Minute)
	require.NoError(t, db.TouchGame("a"))

	*clock = clock.Add(20 * time.Minute)
	_, err := db.LoadGame("b")
	assert.ErrorIs(t, err, ErrExpired)
	_, err = db.LoadGame("a")
	assert.NoError(t, err)

	n, err := db.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = db.LoadGame("b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeta(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := db.GetMeta("games_created")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.SaveMeta("games_created", "3"))
	v, err := db.GetMeta("games_created")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestDeleteGame(t *testing.T) {
	db, _ := openTestDB(t)
	w := engine.CreateWorld(2, rules.Default(), entropy.New(1))
	require.NoError(t, db.SaveGame("x", w))
	require.NoError(t, db.DeleteGame("x"))
	require.NoError(t, db.DeleteGame("x"))
	_, err := db.LoadGame("x")
	assert.ErrorIs(t, err, ErrNotFound)
}
