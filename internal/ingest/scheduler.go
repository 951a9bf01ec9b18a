package ingest

import (
	"context"
	"log"
	"time"

	"kaspi-seller-dashboard/config"
	"kaspi-seller-dashboard/internal/database"
)

// Scheduler runs the ingest service for every merchant on a fixed interval.
// Each run resyncs a trailing window of days so late status changes (returns,
// cancellations) are picked up.
type Scheduler struct {
	service *Service
	repo    *database.Repository
	cfg     config.SyncConfig
	stop    chan struct{}
}

// NewScheduler creates a new sync scheduler
func NewScheduler(service *Service, repo *database.Repository, cfg config.SyncConfig) *Scheduler {
	return &Scheduler{
		service: service,
		repo:    repo,
		cfg:     cfg,
		stop:    make(chan struct{}),
	}
}

// Start begins the periodic sync loop. Blocks until Stop is called or the
// context is cancelled; callers run it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Printf("[SCHEDULER] Sync disabled, scheduler not started")
		return
	}

	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	log.Printf("[SCHEDULER] Starting sync scheduler (interval: %s, backfill: %d days)", interval, s.cfg.BackfillDays)

	// First run immediately, then on the interval
	s.runAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// Stop terminates the scheduler loop
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) runAll(ctx context.Context) {
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] Failed to list merchants: %v", err)
		return
	}

	backfill := s.cfg.BackfillDays
	if backfill < 1 {
		backfill = 1
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -(backfill - 1))

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		if err := s.service.SyncRange(ctx, userID, from, to); err != nil {
			log.Printf("[SCHEDULER] Sync failed for user %s: %v", userID, err)
		}
	}
}
