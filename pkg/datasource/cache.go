package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileCache keeps one raw JSON payload per match id in a directory
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(id string) (string, error) {
	if !safeID.MatchString(id) {
		return "", fmt.Errorf("refusing to cache match id %q", id)
	}
	return filepath.Join(c.dir, id+".json"), nil
}

// Get returns the cached payload for id, or false when there is none
func (c *FileCache) Get(id string) ([]byte, bool) {
	p, err := c.path(id)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores the payload for id. The file is written to a temporary name
// and renamed so readers never see a partial payload.
func (c *FileCache) Put(id string, data []byte) error {
	p, err := c.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file for %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move cache file for %s: %w", id, err)
	}
	return nil
}
