// Package container provides dependency injection for the camt-recon application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"

	"fjacquet/camt-recon/internal/config"
	"fjacquet/camt-recon/internal/importer"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/reconciler"
	"fjacquet/camt-recon/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	store      store.Store
	reconciler *reconciler.Service
	importer   *importer.Importer
}

// NewContainer creates and wires all application dependencies.
//
// Parameters:
//   - cfg: Application configuration
//
// Returns:
//   - *Container: Fully wired container with all dependencies
//   - error: Any error encountered during dependency creation
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	st, err := store.Open(cfg.Data.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.Data.Database, err)
	}

	// The store is the repository, the payment source and the audit sink at once.
	svc := reconciler.NewService(st, st, st, logger, reconciler.Settings{
		PaymentLookbackDays: cfg.Reconciliation.PaymentLookbackDays,
		SystemActor:         cfg.Reconciliation.SystemActor,
	})

	imp := importer.New(st, st, st, logger, importer.Options{
		InferReferences: cfg.Import.InferReferences,
		Actor:           cfg.Reconciliation.SystemActor,
	})

	logger.Debug("Container initialized successfully",
		logging.F("database", cfg.Data.Database),
		logging.F("lookback_days", cfg.Reconciliation.PaymentLookbackDays))

	return &Container{
		logger:     logger,
		config:     cfg,
		store:      st,
		reconciler: svc,
		importer:   imp,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the persistence layer.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetReconciler returns the reconciliation service.
func (c *Container) GetReconciler() *reconciler.Service {
	return c.reconciler
}

// GetImporter returns the statement and payment importer.
func (c *Container) GetImporter() *importer.Importer {
	return c.importer
}

// Close releases the store.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
