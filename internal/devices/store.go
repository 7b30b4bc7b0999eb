package devices

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SyncRule routes the temperature of the Tilt named Tilt to a block.
type SyncRule struct {
	Tilt    string `yaml:"tilt"`
	Type    string `yaml:"type"`
	Service string `yaml:"service"`
	Block   string `yaml:"block"`
}

// SyncTarget is a resolved routing destination attached to a message.
type SyncTarget struct {
	Type    string `json:"type"`
	Service string `json:"service"`
	Block   string `json:"block"`
}

// complete reports whether every routing field is set.
func (r SyncRule) complete() bool {
	return r.Tilt != "" && r.Type != "" && r.Service != "" && r.Block != ""
}

// Document is the persisted form of the registry.
type Document struct {
	Names map[string]string `yaml:"names"`
	Sync  []SyncRule        `yaml:"sync,omitempty"`
}

// Store persists the registry document.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// FileStore keeps the document in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the document, creating an empty file if none exists.
func (s *FileStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating devices directory: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(s.path, nil, 0o666); err != nil { //nolint:gosec // Shared with other brewery tools
			return nil, fmt.Errorf("creating devices file: %w", err)
		}
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("reading devices file: %w", err)
	}

	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing devices file: %w", err)
	}
	if doc.Names == nil {
		doc.Names = make(map[string]string)
	}
	return doc, nil
}

// Save writes the document atomically via a temporary file and rename.
func (s *FileStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling devices: %w", err)
	}

	header := []byte(`# Tilt device names and sync rules.
# Names may contain letters, digits, spaces, underscores and hyphens.

`)
	data = append(header, data...)

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o666); err != nil { //nolint:gosec // Shared with other brewery tools
		return fmt.Errorf("writing temporary devices file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("saving devices file: %w", err)
	}
	return nil
}
