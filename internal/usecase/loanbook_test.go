package usecase_test

import (
	"context"
	"errors"
	"testing"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/usecase"
	mock_usecase "bank-ledger/internal/usecase/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loanFixture struct {
	ctx   context.Context
	loans *mock_usecase.MockLoanRepository
	seq   *mock_usecase.MockSequenceRepository
	book  *usecase.LoanBook
}

func newLoanFixture(t *testing.T, seed []domain.Loan, mark int, opts ...usecase.Option) *loanFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &loanFixture{
		ctx:   context.Background(),
		loans: mock_usecase.NewMockLoanRepository(ctrl),
		seq:   mock_usecase.NewMockSequenceRepository(ctrl),
	}
	f.loans.EXPECT().LoadLoans(gomock.Any()).Return(seed, nil)
	f.seq.EXPECT().LoadSequence(gomock.Any(), usecase.LoanSequence).Return(mark, nil)

	f.book = usecase.NewLoanBook(f.loans, f.seq, opts...)
	require.NoError(t, f.book.Load(f.ctx))
	return f
}

func (f *loanFixture) allowSaves() {
	f.loans.EXPECT().SaveLoans(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.seq.EXPECT().SaveSequence(gomock.Any(), usecase.LoanSequence, gomock.Any()).Return(nil).AnyTimes()
}

func TestLoanBook_OriginateAndRepay(t *testing.T) {
	f := newLoanFixture(t, nil, 0)
	f.allowSaves()

	loan, err := f.book.OriginateLoan(f.ctx, "Bob", money("1000"), money("10"), 12)
	require.NoError(t, err)
	assert.Equal(t, 1, loan.ID)
	assertMoney(t, "1000.00", loan.RemainingBalance)

	loan, err = f.book.Repay(f.ctx, loan.ID, money("400"))
	require.NoError(t, err)
	assertMoney(t, "600.00", loan.RemainingBalance)

	loan, err = f.book.Repay(f.ctx, loan.ID, money("600"))
	require.NoError(t, err)
	assertMoney(t, "0.00", loan.RemainingBalance)
	assert.True(t, loan.Settled())

	_, err = f.book.Repay(f.ctx, loan.ID, money("1"))
	assert.ErrorIs(t, err, domain.ErrExceedsBalance)

	stored, err := f.book.FindByID(1)
	require.NoError(t, err)
	assertMoney(t, "0.00", stored.RemainingBalance)
	assertMoney(t, "1000.00", stored.Amount)
}

func TestLoanBook_OriginateValidation(t *testing.T) {
	tests := []struct {
		name       string
		lenient    bool
		customer   string
		amount     string
		rate       string
		months     int
		wantErr    error
		wantAmount string
		wantRate   string
		wantMonths int
	}{
		{name: "valid", customer: "Bob", amount: "1000", rate: "10", months: 12, wantAmount: "1000.00", wantRate: "10.00", wantMonths: 12},
		{name: "zero amount", customer: "Bob", amount: "0", rate: "10", months: 12, wantErr: domain.ErrInvalidAmount},
		{name: "negative rate", customer: "Bob", amount: "10", rate: "-1", months: 12, wantErr: domain.ErrInvalidRate},
		{name: "zero months", customer: "Bob", amount: "10", rate: "1", months: 0, wantErr: domain.ErrInvalidDuration},
		{name: "bad name", customer: "Bob\nEve", amount: "10", rate: "1", months: 1, wantErr: domain.ErrInvalidName},
		{name: "lenient clamps", lenient: true, customer: "Bob", amount: "-5", rate: "-1", months: -3, wantAmount: "0.00", wantRate: "0.00", wantMonths: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoanFixture(t, nil, 0, usecase.WithLenientInput(tt.lenient))
			if tt.wantErr == nil {
				f.allowSaves()
			}

			got, err := f.book.OriginateLoan(f.ctx, tt.customer, money(tt.amount), money(tt.rate), tt.months)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.book.ListLoans())
				return
			}
			require.NoError(t, err)
			assertMoney(t, tt.wantAmount, got.Amount)
			assertMoney(t, tt.wantAmount, got.RemainingBalance)
			assertMoney(t, tt.wantRate, got.InterestRate)
			assert.Equal(t, tt.wantMonths, got.DurationMonths)
		})
	}
}

func TestLoanBook_RepayErrors(t *testing.T) {
	seed := []domain.Loan{{ID: 3, CustomerName: "Bob", Amount: money("100"), InterestRate: money("1"), DurationMonths: 6, RemainingBalance: money("50")}}
	f := newLoanFixture(t, seed, 0)

	_, err := f.book.Repay(f.ctx, 99, money("1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.book.Repay(f.ctx, 3, money("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.book.Repay(f.ctx, 3, money("50.01"))
	assert.ErrorIs(t, err, domain.ErrExceedsBalance)

	loan, err := f.book.FindByID(3)
	require.NoError(t, err)
	assertMoney(t, "50.00", loan.RemainingBalance)
}

func TestLoanBook_IDsContinueFromHighWaterMark(t *testing.T) {
	seed := []domain.Loan{{ID: 2, CustomerName: "Ann", Amount: money("10"), InterestRate: money("0"), DurationMonths: 1, RemainingBalance: money("10")}}
	f := newLoanFixture(t, seed, 5)
	f.loans.EXPECT().SaveLoans(gomock.Any(), gomock.Len(2)).Return(nil)
	f.seq.EXPECT().SaveSequence(gomock.Any(), usecase.LoanSequence, 6).Return(nil)

	assert.Equal(t, 6, f.book.NextID())
	loan, err := f.book.OriginateLoan(f.ctx, "Bob", money("10"), money("0"), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, loan.ID)
	assert.Equal(t, 7, f.book.NextID())
}

func TestLoanBook_PersistenceFailure(t *testing.T) {
	f := newLoanFixture(t, nil, 0)
	gomock.InOrder(
		f.seq.EXPECT().SaveSequence(gomock.Any(), usecase.LoanSequence, 1).Return(nil),
		f.loans.EXPECT().SaveLoans(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
	)

	_, err := f.book.OriginateLoan(f.ctx, "Bob", money("1000"), money("10"), 12)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, f.book.ListLoans())
	assert.Equal(t, 1, f.book.NextID())
}

func TestLoanBook_Reload(t *testing.T) {
	f := newLoanFixture(t, nil, 0)
	onDisk := []domain.Loan{{ID: 1, CustomerName: "Bob", Amount: money("5"), InterestRate: money("0"), DurationMonths: 1, RemainingBalance: money("5")}}
	f.loans.EXPECT().LoadLoans(gomock.Any()).Return(onDisk, nil)
	f.seq.EXPECT().LoadSequence(gomock.Any(), usecase.LoanSequence).Return(1, nil)

	require.NoError(t, f.book.Reload(f.ctx))
	assert.Len(t, f.book.ListLoans(), 1)
	assert.Equal(t, 2, f.book.NextID())
}
