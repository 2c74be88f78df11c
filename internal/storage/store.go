package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"earsip/internal/backup"
	"earsip/internal/config"
	"earsip/internal/domain"
	"earsip/internal/logging"
)

// Seed is the collection used when nothing usable has been persisted.
func Seed() []domain.Letter {
	return []domain.Letter{
		{
			ID:           "1",
			LetterNumber: "001/LPSE-NTB/I/2024",
			SubjectCode:  "800.1.3",
			Subject:      "Undangan Rapat Koordinasi IT",
			Counterparty: "Kominfo NTB",
			ArchiveDate:  "2024-01-15",
			LetterDate:   "2024-01-10",
			ReceivedDate: "2024-01-15",
			Direction:    domain.DirectionIncoming,
			Status:       domain.StatusCompleted,
			Signatory:    "Kepala Dinas",
			Summary:      "Koordinasi teknis implementasi server baru.",
		},
	}
}

// Store mirrors the letter collection into a durable slot. It never fails
// towards its caller: reads fall back to the seed and writes are best-effort.
type Store struct {
	mu     sync.Mutex
	slot   Slot
	logger zerolog.Logger
}

func NewStore(slot Slot) *Store {
	return &Store{slot: slot, logger: logging.Component("storage")}
}

// Open builds the slot selected by the configuration. The returned close
// function releases the driver's resources.
func Open(cfg config.Config) (*Store, func() error, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverSQLite:
		slot, err := OpenSQLiteSlot(cfg.DatabasePath(), cfg.StorageSlot)
		if err != nil {
			return nil, nil, err
		}
		return NewStore(slot), slot.Close, nil
	case config.StorageDriverFile, "":
		slot, err := NewFileSlot(cfg.SlotPath())
		if err != nil {
			return nil, nil, err
		}
		return NewStore(slot), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func (s *Store) Load() []domain.Letter {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.slot.Read()
	if errors.Is(err, ErrSlotEmpty) {
		s.logger.Info().Msg("storage slot empty, using seed data")
		return Seed()
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("storage slot unreadable, using seed data")
		return Seed()
	}

	letters, err := backup.Parse(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("storage slot holds unusable data, using seed data")
		return Seed()
	}

	s.logger.Debug().Int("letters", len(letters)).Msg("collection loaded")
	return letters
}

func (s *Store) Save(letters []domain.Letter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if letters == nil {
		letters = []domain.Letter{}
	}
	data, err := json.Marshal(letters)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode collection")
		return
	}

	if err := s.slot.Write(data); err != nil {
		s.logger.Error().Err(err).Int("letters", len(letters)).Msg("save collection")
		return
	}
	s.logger.Debug().Int("letters", len(letters)).Msg("collection saved")
}
