package track

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/binkrace/pkg/model"
)

// Parse reads a yaml track definition. Fields missing in data keep the values
// of the default track.
func Parse(data []byte) (*model.Track, error) {
	t := model.DefaultTrack()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile reads a track definition from path. An empty path yields the default track.
func LoadFile(path string) (*model.Track, error) {
	if path == "" {
		return model.DefaultTrack(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track %s: %w", path, err)
	}
	return Parse(data)
}
