package container

import (
	"context"
	"fmt"
	"log"

	"cpseval/adapters/memory"
	"cpseval/adapters/postgres"
	"cpseval/internal/analysis"
	"cpseval/internal/api"
	"cpseval/internal/config"
	"cpseval/internal/schema"
	"cpseval/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Scoring
	Schema *schema.Schema
	Engine *analysis.Engine
	SSEHub *api.SSEHub

	// Repositories (data access layer)
	ReportRepo ports.ReportRepository
	Ledger     ports.LedgerSubmitter
}

// New creates a container backed by in-memory stores. Call InitWithDatabase
// to switch the stores to postgres.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	s, err := cfg.Paths.LoadSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load metric schema: %w", err)
	}

	c := &Container{
		Config:     cfg,
		Schema:     s,
		SSEHub:     api.NewSSEHub(),
		ReportRepo: memory.NewReportRepository(),
		Ledger:     memory.NewLedger(),
	}
	c.Engine = analysis.NewEngine(s).WithProgress(api.NewLoggingSink(c.SSEHub))

	log.Printf("Container initialized: %d metrics (schema %s), in-memory report store", s.Len(), s.Hash())
	return c, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DB = db
	c.ReportRepo = postgres.NewReportRepository(db)
	c.Ledger = postgres.NewLedgerRepository(db)

	log.Printf("Container switched to postgres report store")
	return nil
}

// AnalysisHandler builds the HTTP handler over the container's components.
func (c *Container) AnalysisHandler() *api.AnalysisHandler {
	return api.NewAnalysisHandler(c.Engine, c.ReportRepo, c.Ledger, c.Config.Engine)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
