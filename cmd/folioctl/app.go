package main

import (
	"database/sql"
	"fmt"

	"github.com/folioview/folio-backend/internal/config"
	"github.com/folioview/folio-backend/internal/database"
	"github.com/folioview/folio-backend/internal/repository"
)

// app wires the configuration, database and repositories a command needs.
type app struct {
	cfg       *config.Config
	db        *sql.DB
	assets    *repository.AssetRepository
	deals     *repository.DealRepository
	prices    *repository.PriceRepository
	snapshots *repository.SnapshotRepository
	history   *repository.HistoryRepository
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &app{
		cfg:       cfg,
		db:        db,
		assets:    repository.NewAssetRepository(db),
		deals:     repository.NewDealRepository(db),
		prices:    repository.NewPriceRepository(db),
		snapshots: repository.NewSnapshotRepository(db),
		history:   repository.NewHistoryRepository(db),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}
