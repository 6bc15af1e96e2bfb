package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// newValidator создает валидатор DTO с именами полей из json-тегов
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Пароль должен содержать хотя бы одну букву и одну цифру
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		var hasLetter, hasDigit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})

	return validate
}

// validateStruct валидирует DTO и собирает сообщения об ошибках
func validateStruct(validate *validator.Validate, dto interface{}) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewValidationError("%s", err.Error())
	}

	var errorMessages []string
	for _, e := range validationErrors {
		field := fieldPath(e)
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, field+": This field is required.")
		case "gt":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Ensure this value is greater than %s.", field, e.Param()))
		case "gte":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Ensure this value is greater than or equal to %s.", field, e.Param()))
		case "lte":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Ensure this value is less than or equal to %s.", field, e.Param()))
		case "max":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Ensure this field has no more than %s characters.", field, e.Param()))
		case "min":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Ensure this field has at least %s characters.", field, e.Param()))
		case "email":
			errorMessages = append(errorMessages, field+": Enter a valid email address.")
		case "oneof":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Must be one of: %s.", field, e.Param()))
		case "datetime":
			errorMessages = append(errorMessages, fmt.Sprintf("%s: Date has wrong format. Use %s.", field, "YYYY-MM-DD"))
		case "password":
			errorMessages = append(errorMessages, field+": The password must contain at least one letter and one digit.")
		default:
			errorMessages = append(errorMessages, fmt.Sprintf("%s: failed on %s.", field, e.Tag()))
		}
	}
	return &ValidationError{Message: strings.Join(errorMessages, "; ")}
}

// fieldPath возвращает путь к полю без имени корневой структуры, например "products[0].quantity"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}
