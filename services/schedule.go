package services

import (
	"errors"
	"time"

	"creditdesk/models"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// DueGraceDays - через сколько дней после плановой даты наступает крайний срок платежа
const DueGraceDays = 7

// Schedule представляет график взносов по кредиту
type Schedule struct {
	StartDate time.Time
	EndDate   time.Time
	Payments  []models.Payment
}

// Total возвращает сумму всех взносов графика
func (s *Schedule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.PaymentAmount)
	}
	return total
}

// GenerateSchedule строит график из installments ежемесячных взносов.
// Первый взнос - через месяц после today. Каждый взнос равен total/installments,
// усеченному до копеек, а остаток деления добавляется к последнему взносу,
// поэтому сумма графика всегда равна total.
func GenerateSchedule(creditID uint, total decimal.Decimal, installments int, today time.Time) (*Schedule, error) {
	if installments < 1 {
		return nil, errors.New("number of installments must be positive")
	}
	if total.IsNegative() {
		return nil, errors.New("total amount must not be negative")
	}

	n := decimal.NewFromInt(int64(installments))
	monthly := total.DivRound(n, 8).Truncate(2)
	last := total.Sub(monthly.Mul(decimal.NewFromInt(int64(installments - 1))))

	start := AddMonths(DateOf(today), 1)
	payments := make([]models.Payment, installments)
	for i := 0; i < installments; i++ {
		paymentDate := AddMonths(start, i)
		amount := monthly
		if i == installments-1 {
			amount = last
		}
		payments[i] = models.Payment{
			CreditID:      creditID,
			PaymentAmount: amount,
			PaymentDate:   paymentDate,
			DueDate:       paymentDate.AddDate(0, 0, DueGraceDays),
			Status:        models.PaymentStatusPending,
		}
	}

	return &Schedule{
		StartDate: start,
		EndDate:   AddMonths(start, installments-1),
		Payments:  payments,
	}, nil
}

// AddMonths прибавляет месяцы к дате; если в целевом месяце нет такого дня,
// берется его последний день (31 января + 1 месяц = 28/29 февраля).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if lastDay := first.AddDate(0, 1, -1).Day(); day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// DateOf отбрасывает время, оставляя календарную дату в UTC
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: "Date has wrong format. Use YYYY-MM-DD."}
	}
	return t, nil
}
