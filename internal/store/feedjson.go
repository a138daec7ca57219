package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/model"
)

const lastUpdatedLayout = "2006-01-02 15:04 UTC"

// JSONFeedStore persists the feed snapshot as a single indented JSON file.
// Writes go through a temp file followed by rename so a crash mid-write
// never leaves a truncated snapshot behind.
type JSONFeedStore struct {
	path string
	now  func() time.Time
}

// NewJSONFeedStore returns a FeedStore backed by the given file path.
func NewJSONFeedStore(path string) *JSONFeedStore {
	return &JSONFeedStore{path: path, now: time.Now}
}

// Load reads the snapshot from disk. Any load failure means no prior
// history, never an aborted run: a missing file is a first run, and an
// unreadable or corrupt file degrades to an empty snapshot with a loud
// log line. The run then rebuilds and overwrites it on Save.
func (s *JSONFeedStore) Load(_ context.Context) (*model.FeedSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		zap.L().Info("no existing feed snapshot, starting fresh", zap.String("path", s.path))
		return model.EmptySnapshot(), nil
	}
	if err != nil {
		zap.L().Error("feed snapshot unreadable, starting with empty history",
			zap.String("path", s.path), zap.Error(err))
		return model.EmptySnapshot(), nil
	}

	var snap model.FeedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		zap.L().Error("feed snapshot corrupt, starting with empty history",
			zap.String("path", s.path), zap.Error(err))
		return model.EmptySnapshot(), nil
	}
	if snap.Items == nil {
		snap.Items = []*model.Article{}
	}
	if snap.Videos == nil {
		snap.Videos = []model.Video{}
	}
	if snap.Research == nil {
		snap.Research = []model.Paper{}
	}
	return &snap, nil
}

// Save stamps the snapshot and writes it atomically.
func (s *JSONFeedStore) Save(_ context.Context, snap *model.FeedSnapshot) error {
	snap.LastUpdated = s.now().UTC().Format(lastUpdatedLayout)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return eris.Wrap(err, "feedstore: marshal snapshot")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "feedstore: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*.json")
	if err != nil {
		return eris.Wrap(err, "feedstore: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "feedstore: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "feedstore: close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "feedstore: rename into %s", s.path)
	}
	return nil
}
