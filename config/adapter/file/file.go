// Package file reads configuration from a JSON or TOML file
package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/stairlin/relay/config"
)

// Name contains the adapter registered name
const Name = "file"

// New returns a new file config store
func New(uri *url.URL) (config.Store, error) {
	path := uri.Path
	if path == "" {
		path = uri.Opaque
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist (%s) - %s", uri, err)
	}

	return &Store{Path: path}, nil
}

// Store reads config from a JSON or TOML file
type Store struct {
	Path string
}

// Load config for the given environment
func (s *Store) Load(c interface{}) error {
	r, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("config file cannot be read (%s)", err)
	}

	if filepath.Ext(s.Path) == ".toml" {
		tree, err := config.LoadTree(bytes.NewReader(r))
		if err != nil {
			return err
		}
		return tree.Unmarshal(c)
	}

	if err := json.Unmarshal(r, c); err != nil {
		return fmt.Errorf("config file cannot be parsed (%s)", err)
	}
	return nil
}
