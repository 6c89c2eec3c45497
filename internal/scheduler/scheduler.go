// Package scheduler runs the nightly data pipeline on a cron schedule:
// fetch fresh fund prices, then rebuild snapshots and history for every
// account.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/folioview/folio-backend/internal/service"
)

// Scheduler manages the cron tasks of the refresh pipeline.
type Scheduler struct {
	cron    *cron.Cron
	prices  *service.PriceService
	refresh *service.RefreshService
	ctx     context.Context
}

// New creates a Scheduler. The cron spec format includes a seconds field.
func New(ctx context.Context, prices *service.PriceService, refresh *service.RefreshService) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		prices:  prices,
		refresh: refresh,
		ctx:     ctx,
	}
}

// Register installs the nightly refresh task under the given cron spec.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.cron.AddFunc(refreshCron, s.nightlyRefresh); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("scheduler stopped")
}

// RunNow executes the nightly refresh immediately.
func (s *Scheduler) RunNow() {
	s.nightlyRefresh()
}

func (s *Scheduler) nightlyRefresh() {
	log.Println("running nightly refresh")

	created, err := s.prices.UpdateFundPrices(s.ctx)
	if err != nil {
		log.Printf("nightly price update failed: %v", err)
	} else {
		log.Printf("nightly price update created %d price points", created)
	}

	// Refresh even after a partial price failure; stale prices degrade to
	// the last observation rather than invalidating the series.
	if _, err := s.refresh.Refresh(nil); err != nil {
		log.Printf("nightly account refresh failed: %v", err)
	}
}
