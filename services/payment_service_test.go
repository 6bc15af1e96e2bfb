package services

import (
	"context"
	"sync"
	"testing"

	"creditdesk/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditStatus(t *testing.T, svc *CreditService, id uint) models.CreditStatus {
	t.Helper()
	credit, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	return credit.Status
}

func TestCompletePaymentsMarksCreditPaid(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	credits := NewCreditService(f.db, nil)
	payments := NewPaymentService(f.db, notifier)
	ctx := context.Background()

	credit := createApproved(t, credits, f, 3, 1)
	require.Len(t, credit.Payments, 3)

	for i, p := range credit.Payments[:2] {
		updated, err := payments.Update(ctx, p.ID, UpdatePaymentDTO{Status: models.PaymentStatusCompleted})
		require.NoError(t, err, "payment %d", i)
		assert.Equal(t, models.PaymentStatusCompleted, updated.Status)
		assert.Equal(t, models.CreditStatusApproved, creditStatus(t, credits, credit.ID))
	}
	assert.Empty(t, notifier.paid)

	_, err := payments.Update(ctx, credit.Payments[2].ID, UpdatePaymentDTO{Status: models.PaymentStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.CreditStatusPaid, creditStatus(t, credits, credit.ID))
	assert.Equal(t, []uint{credit.ID}, notifier.paid)

	// погашенный кредит неизменяем
	_, err = credits.Update(ctx, credit.ID, UpdateCreditDTO{Status: models.CreditStatusApproved})
	assert.EqualError(t, err, MsgCreditLocked)
}

func TestCompletedPaymentRejectsUpdates(t *testing.T) {
	f := newFixture(t)
	credits := NewCreditService(f.db, nil)
	payments := NewPaymentService(f.db, nil)
	ctx := context.Background()

	credit := createApproved(t, credits, f, 2, 1)
	id := credit.Payments[0].ID

	_, err := payments.Update(ctx, id, UpdatePaymentDTO{Status: models.PaymentStatusCompleted})
	require.NoError(t, err)

	for _, status := range []models.PaymentStatus{models.PaymentStatusCompleted, models.PaymentStatusPending, "refunded"} {
		_, err := payments.Update(ctx, id, UpdatePaymentDTO{Status: status})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, MsgPaymentLocked, err.Error())
	}

	// pending можно перевести только в completed
	_, err = payments.Update(ctx, credit.Payments[1].ID, UpdatePaymentDTO{Status: models.PaymentStatusPending})
	assert.EqualError(t, err, MsgPaymentLocked)

	_, err = payments.Update(ctx, 9999, UpdatePaymentDTO{Status: models.PaymentStatusCompleted})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentCompletionPaysCreditOnce(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	credits := NewCreditService(f.db, nil)
	payments := NewPaymentService(f.db, notifier)
	ctx := context.Background()

	credit := createApproved(t, credits, f, 3, 1)
	_, err := payments.Update(ctx, credit.Payments[0].ID, UpdatePaymentDTO{Status: models.PaymentStatusCompleted})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range credit.Payments[1:] {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			errs[i] = payments.Complete(ctx, CompletePayment{PaymentID: id})
		}(i, p.ID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, models.CreditStatusPaid, creditStatus(t, credits, credit.ID))
	assert.Equal(t, []uint{credit.ID}, notifier.paid)
}

func TestConcurrentCompletionOfSamePayment(t *testing.T) {
	f := newFixture(t)
	credits := NewCreditService(f.db, nil)
	payments := NewPaymentService(f.db, nil)
	ctx := context.Background()

	credit := createApproved(t, credits, f, 2, 1)
	id := credit.Payments[0].ID

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- payments.Complete(ctx, CompletePayment{PaymentID: id})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.EqualError(t, err, MsgPaymentLocked)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, models.CreditStatusApproved, creditStatus(t, credits, credit.ID))
}

func TestCreateManualPayment(t *testing.T) {
	f := newFixture(t)
	credits := NewCreditService(f.db, nil)
	payments := NewPaymentService(f.db, nil)
	ctx := context.Background()

	pending, err := credits.Create(ctx, f.creditDTO(1, CreditProductDTO{ProductID: f.products[0].ID, Quantity: 1}))
	require.NoError(t, err)

	dto := CreatePaymentDTO{
		CreditID:      pending.ID,
		PaymentAmount: decimal.RequireFromString("25.00"),
		PaymentDate:   "2025-02-01",
		DueDate:       "2025-02-08",
	}
	_, err = payments.Create(ctx, dto)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	approved := createApproved(t, credits, f, 1, 1)
	dto.CreditID = approved.ID
	payment, err := payments.Create(ctx, dto)
	require.NoError(t, err)
	assert.Equal(t, "25.00", payment.PaymentAmount)
	assert.Equal(t, "2025-02-01", payment.PaymentDate)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)

	invalid := []CreatePaymentDTO{
		{CreditID: approved.ID, PaymentAmount: decimal.Zero, PaymentDate: "2025-02-01", DueDate: "2025-02-08"},
		{CreditID: approved.ID, PaymentAmount: decimal.RequireFromString("1.001"), PaymentDate: "2025-02-01", DueDate: "2025-02-08"},
		{CreditID: approved.ID, PaymentAmount: decimal.RequireFromString("5"), PaymentDate: "2025-02-08", DueDate: "2025-02-01"},
		{CreditID: approved.ID, PaymentAmount: decimal.RequireFromString("5"), PaymentDate: "01/02/2025", DueDate: "2025-02-08"},
		{CreditID: 9999, PaymentAmount: decimal.RequireFromString("5"), PaymentDate: "2025-02-01", DueDate: "2025-02-08"},
	}
	for i, dto := range invalid {
		_, err := payments.Create(ctx, dto)
		assert.True(t, IsValidation(err), "case %d: %v", i, err)
	}

	page, err := payments.List(ctx, PaymentFilter{CreditID: approved.ID}, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
}

func TestListPaymentsFilters(t *testing.T) {
	f := newFixture(t)
	credits := NewCreditService(f.db, nil)
	payments := NewPaymentService(f.db, nil)
	ctx := context.Background()

	first := createApproved(t, credits, f, 3, 1)
	createApproved(t, credits, f, 2, 1)

	_, err := payments.Update(ctx, first.Payments[0].ID, UpdatePaymentDTO{Status: models.PaymentStatusCompleted})
	require.NoError(t, err)

	all, err := payments.List(ctx, PaymentFilter{}, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Count)

	own, err := payments.List(ctx, PaymentFilter{CreditID: first.ID}, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), own.Count)

	completed, err := payments.List(ctx, PaymentFilter{Status: models.PaymentStatusCompleted}, ListParams{})
	require.NoError(t, err)
	require.Len(t, completed.Results, 1)
	assert.Equal(t, first.Payments[0].ID, completed.Results[0].ID)
}
