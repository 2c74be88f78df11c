package app

import (
	"fmt"

	"earsip/internal/archive"
	"earsip/internal/attachment"
	"earsip/internal/auth"
	"earsip/internal/config"
	"earsip/internal/services"
	"earsip/internal/storage"
)

// Open wires the controller from configuration: storage slot, loaded
// collection, summarizer, encoder and policy. The returned function closes
// the storage driver.
func Open(cfg config.Config) (*Controller, func() error, error) {
	store, closeStore, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	summarizer, err := services.NewSummarizer(cfg)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("init summarizer: %w", err)
	}

	letters := archive.NewCollection(store.Load(), store)
	controller := NewController(letters, Options{
		Summarizer: summarizer,
		Encoder:    attachment.NewEncoder(cfg.MaxUploadBytes()),
		Reports:    services.NewReportService(),
		Policy:     auth.DefaultPolicy(),
		PageSize:   cfg.PageSize,
	})
	return controller, closeStore, nil
}
