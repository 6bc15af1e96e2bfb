package services

import (
	"errors"
	"fmt"

	"creditdesk/models"
)

var (
	// ErrNotFound возвращается, когда запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль
	ErrInvalidCredentials = errors.New("No active account found with the given credentials")
)

// Сообщения об отказе в переходе состояния
const (
	MsgCreditLocked  = "The credit can no longer be updated."
	MsgPaymentLocked = "The payment can no longer be updated."
)

// ValidationError - ошибка, которую пользователь может исправить сам
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError создает ошибку валидации без привязки к полю
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IntegrityError - нарушение ограничения целостности (уникальность, ссылки)
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string {
	return e.Message
}

func notFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// fromModelError переводит ошибку валидации модели в ValidationError
func fromModelError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) {
		return &ValidationError{Field: fieldErr.Field, Message: fieldErr.Message}
	}
	return err
}

// IsValidation сообщает, является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsIntegrity сообщает, является ли ошибка нарушением целостности
func IsIntegrity(err error) bool {
	var i *IntegrityError
	return errors.As(err, &i)
}

// wrapUpdateError оборачивает непредвиденные ошибки перехода состояния в ошибку валидации,
// ошибки валидации, целостности и отсутствия записи возвращаются как есть.
func wrapUpdateError(prefix string, err error) error {
	if err == nil || IsValidation(err) || IsIntegrity(err) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &ValidationError{Message: prefix + ": " + err.Error()}
}
