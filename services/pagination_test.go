package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		in   ListParams
		want ListParams
	}{
		{ListParams{}, ListParams{Page: 1, PageSize: DefaultPageSize}},
		{ListParams{Page: -3, PageSize: -1}, ListParams{Page: 1, PageSize: DefaultPageSize}},
		{ListParams{Page: 4, PageSize: 500}, ListParams{Page: 4, PageSize: MaxPageSize}},
		{ListParams{Page: 2, PageSize: 10, Search: "x"}, ListParams{Page: 2, PageSize: 10, Search: "x"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}

func TestNewPage(t *testing.T) {
	page := newPage([]int{1, 2}, 45, ListParams{Page: 3, PageSize: 20})
	assert.Equal(t, int64(45), page.Count)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)

	empty := newPage[int](nil, 0, ListParams{})
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Results)
}

func TestWrapUpdateError(t *testing.T) {
	assert.Nil(t, wrapUpdateError("Error updating credit", nil))

	validation := NewValidationError(MsgCreditLocked)
	assert.Same(t, validation, wrapUpdateError("Error updating credit", validation))

	missing := notFound("credit", 7)
	assert.ErrorIs(t, wrapUpdateError("Error updating credit", missing), ErrNotFound)

	wrapped := wrapUpdateError("Error updating payment", errors.New("database is locked"))
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "Error updating payment: database is locked", wrapped.Error())
}

func TestValidateStructMessages(t *testing.T) {
	validate := newValidator()

	err := validateStruct(validate, CreateCreditDTO{
		NoInstallment: 40000,
		Products:      []CreditProductDTO{{ProductID: 1}},
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	for _, fragment := range []string{
		"description: This field is required.",
		"no_installment: Ensure this value is less than or equal to 32767.",
		"interest_rate: This field is required.",
		"products[0].quantity: This field is required.",
	} {
		assert.Contains(t, verr.Message, fragment, fmt.Sprintf("message: %s", verr.Message))
	}
}
