package models

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const SaveDir = ".results"

// SaveResult writes r to <dir>/<game_id>.yaml.
func SaveResult(dir string, r GameResult) (string, error) {
	if dir == "" {
		dir = SaveDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.GameID+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func LoadResult(dir, gameID string) (*GameResult, error) {
	if dir == "" {
		dir = SaveDir
	}
	data, err := os.ReadFile(filepath.Join(dir, gameID+".yaml"))
	if err != nil {
		return nil, err
	}
	var r GameResult
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListResults returns the game ids saved under dir, sorted.
func ListResults(dir string) ([]string, error) {
	if dir == "" {
		dir = SaveDir
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(ids)
	return ids, nil
}
