package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotalAmount(t *testing.T) {
	credit := Credit{
		Products: []ClientCreditProduct{
			{Quantity: 2, Product: Product{Name: "Product 1", Price: decimal.RequireFromString("100.00")}},
			{Quantity: 1, Product: Product{Name: "Product 2", Price: decimal.RequireFromString("100.00")}},
		},
	}

	assert.True(t, credit.CalculateTotalAmount().Equal(decimal.RequireFromString("300.00")))
}

func TestCalculateTotalAmountKeepsCents(t *testing.T) {
	credit := Credit{
		Products: []ClientCreditProduct{
			{Quantity: 3, Product: Product{Price: decimal.RequireFromString("0.10")}},
			{Quantity: 7, Product: Product{Price: decimal.RequireFromString("59999.99")}},
		},
	}

	assert.Equal(t, "420000.23", credit.CalculateTotalAmount().StringFixed(2))
}

func TestCalculateTotalAmountEmpty(t *testing.T) {
	var credit Credit
	assert.True(t, credit.CalculateTotalAmount().IsZero())
}

func TestCreditValidate(t *testing.T) {
	valid := func() Credit {
		return Credit{
			Description:   "Crédito Prueba",
			NoInstallment: 12,
			PenaltyRate:   decimal.RequireFromString("2.5"),
		}
	}

	credit := valid()
	require.NoError(t, credit.Validate())

	tests := []struct {
		name   string
		mutate func(c *Credit)
		field  string
	}{
		{"negative penalty rate", func(c *Credit) { c.PenaltyRate = decimal.RequireFromString("-1.0") }, "penalty_rate"},
		{"penalty rate too large", func(c *Credit) { c.PenaltyRate = decimal.RequireFromString("100") }, "penalty_rate"},
		{"penalty rate too precise", func(c *Credit) { c.PenaltyRate = decimal.RequireFromString("1.255") }, "penalty_rate"},
		{"no installments", func(c *Credit) { c.NoInstallment = 0 }, "no_installment"},
		{"blank description", func(c *Credit) { c.Description = "" }, "description"},
		{"long description", func(c *Credit) {
			c.Description = "012345678901234567890123456789012345678901234567890"
		}, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credit := valid()
			tt.mutate(&credit)

			err := credit.Validate()
			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestInterestRateValidate(t *testing.T) {
	rate := InterestRate{Percentage: decimal.RequireFromString("5.5")}
	require.NoError(t, rate.Validate())

	rate.Percentage = decimal.RequireFromString("-0.01")
	err := rate.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greater than or equal to 0")
}

func TestProductValidate(t *testing.T) {
	product := Product{Price: decimal.RequireFromString("59999.99")}
	require.NoError(t, product.Validate())

	product.Price = decimal.RequireFromString("-1")
	assert.Error(t, product.Validate())
}
