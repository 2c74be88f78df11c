package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSlotEmpty is returned by Read when nothing has been written yet.
var ErrSlotEmpty = errors.New("storage slot is empty")

// Slot is one named durable value holding the serialized collection.
type Slot interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileSlot keeps the slot in a single JSON file.
type FileSlot struct {
	path string
}

func NewFileSlot(path string) (*FileSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileSlot{path: path}, nil
}

func (s *FileSlot) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSlotEmpty
	}
	return data, nil
}

// Write replaces the file atomically through a temp file in the same directory.
func (s *FileSlot) Write(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "slot-*.json")
	if err != nil {
		return fmt.Errorf("create temp slot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp slot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp slot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace slot file: %w", err)
	}

	return nil
}

func (s *FileSlot) Path() string {
	return s.path
}
