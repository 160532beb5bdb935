package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bank-ledger/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w}

	event := domain.LedgerEvent{
		Kind:          domain.EventTransactionRecorded,
		OccurredAt:    time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		AccountNumber: 101,
		TransactionID: 7,
		Type:          domain.TransactionTypeDeposit,
		Amount:        decimal.RequireFromString("50"),
		BalanceAfter:  decimal.RequireFromString("150"),
	}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "account-101", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "transaction.recorded", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "transaction.recorded", decoded["kind"])
	assert.Equal(t, float64(7), decoded["transaction_id"])
	assert.Equal(t, "50", decoded["amount"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unavailable")}
	p := &Publisher{writer: w}

	err := p.Publish(context.Background(), domain.LedgerEvent{Kind: domain.EventLoanRepaid, LoanID: 3})
	assert.EqualError(t, err, "broker unavailable")
	assert.Equal(t, "loan-3", string(w.messages[0].Key))
}
