package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// InterestAccruer applies one interest period to every eligible account.
type InterestAccruer interface {
	ApplyInterestAll(ctx context.Context) (int, error)
}

// Scheduler runs interest accrual on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	ledger  InterestAccruer
	log     logrus.FieldLogger
	timeout time.Duration
}

// New registers the accrual job for spec, a standard five-field cron
// expression or a descriptor such as "@monthly".
func New(spec string, ledger InterestAccruer, log logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		ledger:  ledger,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid interest schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce accrues interest immediately.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	changed, err := s.ledger.ApplyInterestAll(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled interest accrual failed")
		return
	}
	s.log.WithField("accounts", changed).Info("scheduled interest accrual finished")
}

// Start runs the schedule in the background until Stop.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running accrual to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
