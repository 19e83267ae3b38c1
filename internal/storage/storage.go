package storage

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of mined records.
	Store(records []*types.RepositoryMetrics) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the backend selected by cfg.Type.
func New(cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Type {
	case "json", "jsonl", "csv":
		return NewFileStorage(cfg.Type, cfg.OutputPath, logger)
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.Database, cfg.Collection, logger)
	case "none":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Discard drops every record.
type Discard struct{}

func (Discard) Name() string                                   { return "none" }
func (Discard) Store(records []*types.RepositoryMetrics) error { return nil }
func (Discard) Close() error                                   { return nil }
