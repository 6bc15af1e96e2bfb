package services

import (
	"testing"
	"time"

	"creditdesk/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerateScheduleEvenSplit(t *testing.T) {
	today := date(2024, time.October, 10)

	schedule, err := GenerateSchedule(7, decimal.RequireFromString("300.00"), 2, today)
	require.NoError(t, err)

	require.Len(t, schedule.Payments, 2)
	for _, p := range schedule.Payments {
		assert.Equal(t, "150.00", p.PaymentAmount.StringFixed(2))
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, uint(7), p.CreditID)
	}
	assert.Equal(t, date(2024, time.November, 10), schedule.StartDate)
	assert.Equal(t, date(2024, time.December, 10), schedule.EndDate)
	assert.Equal(t, date(2024, time.November, 10), schedule.Payments[0].PaymentDate)
	assert.Equal(t, date(2024, time.November, 17), schedule.Payments[0].DueDate)
	assert.Equal(t, date(2024, time.December, 10), schedule.Payments[1].PaymentDate)
	assert.Equal(t, date(2024, time.December, 17), schedule.Payments[1].DueDate)
}

func TestGenerateScheduleRemainderGoesToLastInstallment(t *testing.T) {
	schedule, err := GenerateSchedule(1, decimal.RequireFromString("100.00"), 3, date(2024, time.January, 5))
	require.NoError(t, err)

	amounts := []string{}
	for _, p := range schedule.Payments {
		amounts = append(amounts, p.PaymentAmount.StringFixed(2))
	}
	assert.Equal(t, []string{"33.33", "33.33", "33.34"}, amounts)
	assert.True(t, schedule.Total().Equal(decimal.RequireFromString("100.00")))
}

func TestGenerateScheduleSumsToTotal(t *testing.T) {
	totals := []string{"0.00", "0.05", "1.00", "299.99", "12345.67", "59999.99"}
	for _, total := range totals {
		for n := 1; n <= 24; n++ {
			amount := decimal.RequireFromString(total)
			schedule, err := GenerateSchedule(1, amount, n, date(2024, time.March, 1))
			require.NoError(t, err)

			require.Len(t, schedule.Payments, n)
			assert.True(t, schedule.Total().Equal(amount), "total %s, n %d", total, n)
			for _, p := range schedule.Payments {
				assert.False(t, p.PaymentAmount.IsNegative(), "total %s, n %d", total, n)
				assert.True(t, p.PaymentAmount.Equal(p.PaymentAmount.Truncate(2)))
			}
		}
	}
}

func TestGenerateScheduleMonthEndClamping(t *testing.T) {
	schedule, err := GenerateSchedule(1, decimal.RequireFromString("400.00"), 4, date(2024, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.February, 29), schedule.StartDate)
	assert.Equal(t, date(2024, time.February, 29), schedule.Payments[0].PaymentDate)
	assert.Equal(t, date(2024, time.March, 29), schedule.Payments[1].PaymentDate)
	assert.Equal(t, date(2024, time.April, 29), schedule.Payments[2].PaymentDate)
	assert.Equal(t, date(2024, time.May, 29), schedule.EndDate)
	assert.Equal(t, date(2024, time.March, 7), schedule.Payments[0].DueDate)
}

func TestGenerateScheduleSingleInstallment(t *testing.T) {
	schedule, err := GenerateSchedule(1, decimal.RequireFromString("99.99"), 1, date(2024, time.December, 15))
	require.NoError(t, err)

	require.Len(t, schedule.Payments, 1)
	assert.Equal(t, "99.99", schedule.Payments[0].PaymentAmount.StringFixed(2))
	assert.Equal(t, date(2025, time.January, 15), schedule.StartDate)
	assert.Equal(t, schedule.StartDate, schedule.EndDate)
}

func TestGenerateScheduleRejectsInvalidInput(t *testing.T) {
	_, err := GenerateSchedule(1, decimal.RequireFromString("100"), 0, time.Now())
	assert.Error(t, err)

	_, err = GenerateSchedule(1, decimal.RequireFromString("-1"), 2, time.Now())
	assert.Error(t, err)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{date(2024, time.August, 31), 1, date(2024, time.September, 30)},
		{date(2024, time.December, 15), 1, date(2025, time.January, 15)},
		{date(2024, time.May, 10), 0, date(2024, time.May, 10)},
		{date(2024, time.May, 10), 14, date(2025, time.July, 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddMonths(tt.in, tt.months), "%s + %d", tt.in.Format(dateLayout), tt.months)
	}
}

func TestDateOfDropsTime(t *testing.T) {
	in := time.Date(2024, time.June, 3, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2024, time.June, 3), DateOf(in))
}
