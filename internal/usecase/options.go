package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"bank-ledger/internal/domain"

	"github.com/sirupsen/logrus"
)

// Sequence names used with SequenceRepository.
const (
	LoanSequence        = "loan"
	TransactionSequence = "transaction"
)

type options struct {
	log       logrus.FieldLogger
	now       func() time.Time
	publisher EventPublisher
	lenient   bool
}

// Option configures a Ledger, LoanBook or TransactionLog.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithClock overrides the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher sets where committed ledger events are sent.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithLenientInput makes creation operations clamp out-of-range inputs to
// safe defaults instead of rejecting them.
func WithLenientInput(lenient bool) Option {
	return func(o *options) { o.lenient = lenient }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.log = l
	}
	return o
}

// publish delivers events best-effort: the change is already committed, so a
// publisher failure is only logged.
func (o options) publish(ctx context.Context, events ...domain.LedgerEvent) {
	if o.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := o.publisher.Publish(ctx, ev); err != nil {
			o.log.WithError(err).WithField("kind", ev.Kind).Warn("failed to publish ledger event")
		}
	}
}

func (o options) timestamp() time.Time {
	return o.now().Truncate(time.Second)
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
