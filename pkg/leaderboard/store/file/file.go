package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mpapenbr/binkrace/pkg/model"
)

const DefaultFileName = "bink-race-leaderboard.json"

// DefaultPath is ~/.binkrace/bink-race-leaderboard.json
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, ".binkrace", DefaultFileName)
}

// Store keeps the leaderboard as a JSON array in a single file.
type Store struct {
	path string
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns no entries if the file does not exist yet.
func (s *Store) Load(context.Context) ([]model.LeaderboardEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.LeaderboardEntry{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []model.LeaderboardEntry{}, nil
	}
	var ret []model.LeaderboardEntry
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return ret, nil
}

// Save replaces the file content via a temp file in the same directory.
func (s *Store) Save(_ context.Context, entries []model.LeaderboardEntry) error {
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".leaderboard-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
