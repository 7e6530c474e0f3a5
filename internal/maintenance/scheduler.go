package maintenance

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// StoryPurger reclaims storage for expired stories.
type StoryPurger interface {
	// PurgeExpired deletes expired stories and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

// CounterReconciler recomputes denormalized counters from row existence.
type CounterReconciler interface {
	// ReconcileCounters fixes drifted counters and returns how many posts
	// were corrected.
	ReconcileCounters(ctx context.Context) (int64, error)
}

// Scheduler runs the background maintenance jobs on cron schedules. Job
// failures are logged and retried on the next scheduled run; they are never
// surfaced to clients.
type Scheduler struct {
	cron       *cron.Cron
	purger     StoryPurger
	reconciler CounterReconciler
}

// NewScheduler creates a scheduler wired to the maintenance jobs.
func NewScheduler(purger StoryPurger, reconciler CounterReconciler) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		purger:     purger,
		reconciler: reconciler,
	}
}

// Start registers the jobs and starts the cron loop.
// purgeSpec and reconcileSpec are cron expressions (e.g. "@every 1h").
func (s *Scheduler) Start(ctx context.Context, purgeSpec, reconcileSpec string) error {
	if _, err := s.cron.AddFunc(purgeSpec, func() { s.runPurge(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(reconcileSpec, func() { s.runReconcile(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[Maintenance] Scheduler started: purge=%q reconcile=%q", purgeSpec, reconcileSpec)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Printf("[Maintenance] Scheduler stopped")
}

func (s *Scheduler) runPurge(ctx context.Context) {
	purged, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		log.Printf("[Maintenance] Story purge FAILED (will retry next run): %v", err)
		return
	}
	log.Printf("[Maintenance] Story purge OK: purged=%d", purged)
}

func (s *Scheduler) runReconcile(ctx context.Context) {
	fixed, err := s.reconciler.ReconcileCounters(ctx)
	if err != nil {
		log.Printf("[Maintenance] Counter reconcile FAILED (will retry next run): %v", err)
		return
	}
	if fixed > 0 {
		log.Printf("[Maintenance] Counter reconcile corrected %d posts", fixed)
	}
}
