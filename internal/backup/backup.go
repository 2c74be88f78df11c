// Package backup converts the letter collection to and from its backup file.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"earsip/internal/domain"
)

// FileName is the download name of every backup.
const FileName = "Backup_EArsip_LPSE_NTB.json"

var (
	ErrNotArray    = errors.New("backup is not a JSON array")
	ErrMalformed   = errors.New("backup contains malformed records")
	ErrDuplicateID = errors.New("backup contains duplicate ids")
)

// Marshal renders the collection as a pretty-printed JSON array.
func Marshal(letters []domain.Letter) ([]byte, error) {
	if letters == nil {
		letters = []domain.Letter{}
	}
	data, err := json.MarshalIndent(letters, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// Parse decodes a backup. Records are taken as they are: absent fields stay
// empty.
func Parse(data []byte) ([]domain.Letter, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var letters []domain.Letter
	if err := json.Unmarshal(trimmed, &letters); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if letters == nil {
		letters = []domain.Letter{}
	}

	seen := make(map[string]struct{}, len(letters))
	for _, l := range letters {
		if _, ok := seen[l.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, l.ID)
		}
		seen[l.ID] = struct{}{}
	}

	return letters, nil
}
