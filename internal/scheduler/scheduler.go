package scheduler

import (
	"context"
	"log"

	"github.com/gharbeti/gharbeti-backend/internal/config"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic booking expiry sweep.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   *services.Sweeper
	config    config.SweeperConfig
	isRunning bool
}

func NewScheduler(sweeper *services.Sweeper, cfg config.SweeperConfig) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		config:  cfg,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.config.CronSpec, func() {
		if _, err := s.sweeper.ExpirePendingBookings(context.Background()); err != nil {
			log.Printf("Scheduler: booking expiry sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: booking expiry sweep scheduled (cron: %s)", s.config.CronSpec)

	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: stopped")
	}
}
