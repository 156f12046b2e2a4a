// Package transcript persists finished call transcripts as JSON
// files, one per call.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"telecaller-platform/internal/conversation"
)

// Document is the on-disk shape of one call transcript.
type Document struct {
	CallID    string               `json:"call_id"`
	CallSid   string               `json:"call_sid"`
	Summary   string               `json:"summary"`
	StartedAt time.Time            `json:"started_at"`
	SavedAt   time.Time            `json:"saved_at"`
	Entries   []conversation.Entry `json:"entries"`
}

// Store writes transcripts under a single directory. Writes go
// through a temp file and rename so readers never see partial JSON.
type Store struct {
	dir   string
	clock func() time.Time
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("transcript dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Store{dir: dir, clock: time.Now}, nil
}

// Save writes the document as <call_id>.json and returns its path.
func (s *Store) Save(doc Document) (string, error) {
	if doc.CallID == "" {
		return "", fmt.Errorf("call id is required")
	}
	doc.SavedAt = s.clock().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	path := filepath.Join(s.dir, doc.CallID+".json")
	tmp, err := os.CreateTemp(s.dir, doc.CallID+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads one transcript back, used by reporting and tests.
func (s *Store) Load(callID string) (Document, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, callID+".json"))
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode transcript: %w", err)
	}
	return doc, nil
}
