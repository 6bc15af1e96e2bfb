package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FieldError описывает нарушение правила валидации конкретного поля модели
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateNonNegative проверяет, что значение больше или равно нулю
func ValidateNonNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return &FieldError{Field: field, Message: "Ensure this value is greater than or equal to 0."}
	}
	return nil
}

// ValidateDigits проверяет, что значение помещается в колонку decimal(digits, places)
func ValidateDigits(field string, value decimal.Decimal, digits, places int32) error {
	if !value.Equal(value.Truncate(places)) {
		return &FieldError{
			Field:   field,
			Message: fmt.Sprintf("Ensure that there are no more than %d decimal places.", places),
		}
	}
	if value.Abs().GreaterThanOrEqual(decimal.New(1, digits-places)) {
		return &FieldError{
			Field:   field,
			Message: fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", digits-places),
		}
	}
	return nil
}

// validateAll возвращает первую ошибку из списка проверок
func validateAll(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
