package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/anjiri1684/coursehub/notifications"
	"github.com/anjiri1684/coursehub/services"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const jobTimeout = 2 * time.Minute

type Options struct {
	PendingPaymentTTL    time.Duration
	RevokeAccessOnRefund bool
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	db       *gorm.DB
	payments *services.PaymentService
	mailer   notifications.Mailer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func NewScheduler(db *gorm.DB, payments *services.PaymentService, mailer notifications.Mailer, opts Options, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger(logger)))),
		db:       db,
		payments: payments,
		mailer:   mailer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// cronLogger reports cron's own errors, recovered job panics included, through slog.
func cronLogger(logger *slog.Logger) cron.Logger {
	return cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
}

type job struct {
	spec string
	name string
	run  func(context.Context) error
}

// Register adds every job to the cron table. Refund revocation is only scheduled when enabled.
func (s *Scheduler) Register() error {
	schedule := []job{
		{"*/15 * * * *", "expire_pending_payments", s.ExpirePendingPayments},
		{"0 * * * *", "assignment_deadline_reminders", s.SendDeadlineReminders},
	}
	if s.opts.RevokeAccessOnRefund {
		schedule = append(schedule, job{"30 * * * *", "revoke_refunded_access", s.RevokeRefundedAccess})
	}

	for _, j := range schedule {
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(j.name, j.run) }); err != nil {
			return err
		}
		s.logger.Info("job scheduled", "job", j.name, "spec", j.spec)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := s.now()
	if err := fn(ctx); err != nil {
		s.logger.Error("job failed", "job", name, "error", err)
		return
	}
	s.logger.Debug("job finished", "job", name, "took", time.Since(start))
}
