package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	calls   atomic.Int32
	changed int
	err     error
}

func (f *fakeLedger) ApplyInterestAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return f.changed, f.err
}

func TestNew_InvalidSpec(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	_, err := New("not a schedule", &fakeLedger{}, logger)
	assert.Error(t, err)
}

func TestScheduler_RunOnce(t *testing.T) {
	tests := []struct {
		name      string
		ledger    *fakeLedger
		wantLevel logrus.Level
	}{
		{name: "success", ledger: &fakeLedger{changed: 3}, wantLevel: logrus.InfoLevel},
		{name: "failure", ledger: &fakeLedger{err: errors.New("disk full")}, wantLevel: logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			s, err := New("@monthly", tt.ledger, logger)
			require.NoError(t, err)

			s.RunOnce()
			assert.Equal(t, int32(1), tt.ledger.calls.Load())
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, tt.wantLevel, hook.LastEntry().Level)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s, err := New("@every 1h", &fakeLedger{}, logger)
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
