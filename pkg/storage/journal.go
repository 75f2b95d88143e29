package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Journal is an append-only audit trail of match previews, one JSON document
// per line.
type Journal interface {
	Append(entry any) error
	Close() error
}

type NopJournal struct{}

func NewNopJournal() *NopJournal       { return &NopJournal{} }
func (*NopJournal) Append(_ any) error { return nil }
func (*NopJournal) Close() error       { return nil }

type FileJournal struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func NewFileJournal(path string) (*FileJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileJournal{f: f, enc: json.NewEncoder(f)}, nil
}

func (j *FileJournal) Append(entry any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

var _ Journal = (*NopJournal)(nil)
var _ Journal = (*FileJournal)(nil)
