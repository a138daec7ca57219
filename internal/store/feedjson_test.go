package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
)

func TestJSONFeedStore_Load_MissingFile(t *testing.T) {
	fs := NewJSONFeedStore(filepath.Join(t.TempDir(), "feed.json"))

	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Videos)
	assert.Empty(t, snap.Research)
}

func TestJSONFeedStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	fs := NewJSONFeedStore(path)
	fs.now = func() time.Time {
		return time.Date(2026, 2, 20, 14, 30, 0, 0, time.UTC)
	}
	ctx := context.Background()

	snap := model.EmptySnapshot()
	snap.Items = append(snap.Items, &model.Article{
		URL:   "https://example.com/openclaw-launch",
		Title: "OpenClaw launches skill marketplace",
		Date:  "02/20/2026",
	})
	snap.Videos = append(snap.Videos, model.Video{
		URL:   "https://www.youtube.com/watch?v=abc123",
		Title: "OpenClaw deep dive",
	})
	require.NoError(t, fs.Save(ctx, snap))

	assert.Equal(t, "2026-02-20 14:30 UTC", snap.LastUpdated)

	loaded, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "https://example.com/openclaw-launch", loaded.Items[0].URL)
	require.Len(t, loaded.Videos, 1)
	assert.Equal(t, "2026-02-20 14:30 UTC", loaded.LastUpdated)
}

func TestJSONFeedStore_Load_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs := NewJSONFeedStore(path)
	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Videos)
	assert.Empty(t, snap.Research)
}

func TestJSONFeedStore_Load_UnreadableFileStartsEmpty(t *testing.T) {
	// A directory at the snapshot path makes ReadFile fail with something
	// other than not-exist.
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	fs := NewJSONFeedStore(path)
	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestJSONFeedStore_Save_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	fs := NewJSONFeedStore(filepath.Join(dir, "feed.json"))

	require.NoError(t, fs.Save(context.Background(), model.EmptySnapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "feed.json", entries[0].Name())
}

func TestJSONFeedStore_Load_FillsNilSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items": null}`), 0o644))

	fs := NewJSONFeedStore(path)
	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Items)
	assert.NotNil(t, snap.Videos)
	assert.NotNil(t, snap.Research)
}
