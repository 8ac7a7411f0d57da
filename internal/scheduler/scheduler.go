// Package scheduler runs the periodic ledger audit.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/mauv0809/pong-ladder/internal/ledger"
)

// Auditor runs one audit pass.
type Auditor interface {
	RunAudit(ctx context.Context, dryRun bool) (ledger.AuditReport, error)
}

// Scheduler wraps a gocron scheduler. The zero interval disables it.
type Scheduler struct {
	sched gocron.Scheduler
}

// New schedules auditor to run every interval. With a zero interval the
// returned Scheduler does nothing.
func New(auditor Auditor, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		log.Info("Periodic audit disabled")
		return &Scheduler{}, nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			report, err := auditor.RunAudit(ctx, false)
			if err != nil {
				log.Error("Scheduled audit failed", "error", err)
				return
			}
			log.Info("Scheduled audit finished", "players", report.Players, "matches", report.Matches, "drifts", len(report.Drifts))
		}),
		gocron.WithName("ledger-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule audit: %w", err)
	}
	log.Info("Periodic audit scheduled", "interval", interval)
	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	if s.sched != nil {
		s.sched.Start()
	}
}

// Shutdown stops the scheduler and waits for a running audit to finish.
func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
