package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SketchRoom/internal/geom"
)

func trackerAt(now *time.Time) *Tracker {
	t := NewTracker()
	t.now = func() time.Time { return *now }
	return t
}

func TestUpsertIsIdempotentMerge(t *testing.T) {
	now := time.Now()
	tr := trackerAt(&now)

	tr.Upsert(User{ID: "u1", Name: "Heron", Color: "#e6194b"})
	tr.Upsert(User{ID: "u1", Cursor: &geom.Point{X: 3, Y: 4}})

	u, ok := tr.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Heron", u.Name) // merge kept the existing name
	assert.Equal(t, "#e6194b", u.Color)
	require.NotNil(t, u.Cursor)
	assert.Equal(t, 3.0, u.Cursor.X)
	assert.True(t, u.Active)
	assert.Equal(t, 1, tr.Len())
}

func TestReplaceAllMarksEveryoneActive(t *testing.T) {
	now := time.Now()
	tr := trackerAt(&now)
	tr.Upsert(User{ID: "old"})

	tr.ReplaceAll([]User{
		{ID: "a", Name: "Otter"},
		{ID: "b", Name: "Lynx", Active: false},
	})

	assert.Equal(t, 2, tr.Len())
	_, ok := tr.Get("old")
	assert.False(t, ok)
	for _, u := range tr.List() {
		assert.True(t, u.Active)
	}
}

func TestSweepEvictsStaleUsers(t *testing.T) {
	now := time.Now()
	tr := trackerAt(&now)

	tr.Upsert(User{ID: "stale"})
	tr.Upsert(User{ID: "fresh"})

	// Time passes; only "fresh" gets a cursor update inside the window.
	now = now.Add(12 * time.Second)
	tr.SetCursor("fresh", geom.Point{X: 1, Y: 1})

	evicted := tr.Sweep(10 * time.Second)
	assert.Equal(t, []string{"stale"}, evicted)
	assert.Equal(t, 1, tr.Len())
	_, ok := tr.Get("fresh")
	assert.True(t, ok)
}

func TestSetCursorIgnoresUnknownUser(t *testing.T) {
	tr := NewTracker()
	tr.SetCursor("ghost", geom.Point{X: 1, Y: 2})
	assert.Equal(t, 0, tr.Len())
}

func TestListIsStableAndDetached(t *testing.T) {
	tr := NewTracker()
	tr.Upsert(User{ID: "b"})
	tr.Upsert(User{ID: "a"})

	list := tr.List()
	require.Equal(t, 2, len(list))
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	list[0].Name = "mutated"
	u, _ := tr.Get("a")
	assert.NotEqual(t, "mutated", u.Name)
}

func TestLoadOrCreatePersistsAndReuses(t *testing.T) {
	store := MemoryStore{}

	first, err := LoadOrCreate(store, "room-1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Name)
	assert.NotEmpty(t, first.Color)

	second, err := LoadOrCreate(store, "room-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := LoadOrCreate(store, "room-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestForgetStartsFreshIdentity(t *testing.T) {
	store := MemoryStore{}
	first, err := LoadOrCreate(store, "room-1")
	require.NoError(t, err)

	require.NoError(t, Forget(store, "room-1"))

	next, err := LoadOrCreate(store, "room-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestLoadOrCreateRecoversFromCorruptRecord(t *testing.T) {
	store := MemoryStore{"room-1": "{not json"}
	u, err := LoadOrCreate(store, "room-1")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/identities.json"
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, fs.Set("room", `{"id":"x"}`))
	v, ok := fs.Get("room")
	require.True(t, ok)
	assert.Equal(t, `{"id":"x"}`, v)

	require.NoError(t, fs.Delete("room"))
	_, ok = fs.Get("room")
	assert.False(t, ok)
}
