package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sharemycard/sharemycard-backend/internal/repository"
)

const (
	JobQRLinkage       = "qr_linkage"
	JobNotifications   = "notification_cleanup"
	JobPurgeLeads      = "purge_deleted_leads"
	JobRefreshTokens   = "refresh_token_cleanup"
	notificationMaxAge = 30 * 24 * time.Hour
	deletedLeadMaxAge  = 90 * 24 * time.Hour
	jobTimeout         = 5 * time.Minute
)

type job struct {
	name string
	spec string
	run  func(ctx context.Context) (int64, error)
}

// Scheduler handles scheduled maintenance
type Scheduler struct {
	cron             *cron.Cron
	leadRepo         repository.LeadRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	now              func() time.Time
	jobs             []job
}

// NewScheduler creates a new scheduler
func NewScheduler(repos *repository.Repositories) *Scheduler {
	s := &Scheduler{
		cron:             cron.New(),
		leadRepo:         repos.LeadRepo,
		userRepo:         repos.UserRepo,
		notificationRepo: repos.NotificationRepo,
		now:              time.Now,
	}
	s.jobs = []job{
		// Every hour
		{name: JobQRLinkage, spec: "0 * * * *", run: s.backfillQRLinkage},
		// Every Sunday at midnight
		{name: JobNotifications, spec: "0 0 * * 0", run: s.cleanupOldNotifications},
		// Every night at 3 AM
		{name: JobPurgeLeads, spec: "0 3 * * *", run: s.purgeDeletedLeads},
		// Every day at 4 AM
		{name: JobRefreshTokens, spec: "0 4 * * *", run: s.cleanupRefreshTokens},
	}
	return s
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	for _, j := range s.jobs {
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.runJob(j) }); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	s.cron.Start()
	log.Printf("[Cron] ✅ Scheduler started with %d jobs", len(s.jobs))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Cron] Scheduler stopped")
}

// RunNow runs one job immediately (for testing/admin).
func (s *Scheduler) RunNow(name string) (int64, error) {
	for _, j := range s.jobs {
		if j.name == name {
			return s.runJob(j)
		}
	}
	return 0, fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) runJob(j job) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.run(ctx)
	if err != nil {
		log.Printf("[Cron] ❌ %s failed: %v", j.name, err)
		return n, err
	}
	log.Printf("[Cron] %s: %d row(s) in %v", j.name, n, time.Since(start))
	return n, nil
}

// backfillQRLinkage adds the qr_leads row for QR-sourced leads that were
// written outside the capture path.
func (s *Scheduler) backfillQRLinkage(ctx context.Context) (int64, error) {
	return s.leadRepo.BackfillQRLinkage(ctx)
}

// cleanupOldNotifications removes old read notifications
func (s *Scheduler) cleanupOldNotifications(ctx context.Context) (int64, error) {
	n, err := s.notificationRepo.DeleteOlderThan(ctx, s.now().Add(-notificationMaxAge), true)
	return int64(n), err
}

func (s *Scheduler) purgeDeletedLeads(ctx context.Context) (int64, error) {
	return s.leadRepo.PurgeDeleted(ctx, s.now().Add(-deletedLeadMaxAge))
}

func (s *Scheduler) cleanupRefreshTokens(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredRefreshTokens(ctx, s.now())
	return int64(n), err
}
