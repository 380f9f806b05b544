// Package state persists install receipts so later runs and the status
// command can tell which add-ons this tool has already set up.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const receiptsFile = "receipts.json"

// Receipt records one completed add-on install.
type Receipt struct {
	Addon        string    `json:"addon"`
	InstallerURL string    `json:"installer_url"`
	RunID        string    `json:"run_id"`
	InstalledAt  time.Time `json:"installed_at"`
}

// Store reads and writes receipts under a state directory. Writes go
// through a temp file and rename so a crash never leaves a half-written
// receipts file.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, receiptsFile)}
}

// Path returns the receipts file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns all recorded receipts. A missing file means no installs
// have been recorded yet and yields an empty list.
func (s *Store) Load() ([]Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// Find returns the receipt for the named add-on, or nil.
func (s *Store) Find(name string) (*Receipt, error) {
	receipts, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range receipts {
		if receipts[i].Addon == name {
			return &receipts[i], nil
		}
	}
	return nil, nil
}

// Record upserts the receipt for an add-on and persists the file.
func (s *Store) Record(r Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range receipts {
		if receipts[i].Addon == r.Addon {
			receipts[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		receipts = append(receipts, r)
	}

	return s.write(receipts)
}

func (s *Store) load() ([]Receipt, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var receipts []Receipt
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return receipts, nil
}

func (s *Store) write(receipts []Receipt) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(receipts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode receipts: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}
	return nil
}
