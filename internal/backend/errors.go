package backend

import (
	"errors"
	"fmt"
)

// ValidationError возвращается, если входные данные неполны. Запрос в сеть при этом не выполняется.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s is required", e.Field)
}

// AuthError возвращается при неверных учётных данных на входе.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "invalid credentials"
	}
	return "invalid credentials: " + e.Detail
}

// UnauthorizedError возвращается, если бэкенд отклонил переданный токен (401/403).
type UnauthorizedError struct {
	Status int
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: status %d", e.Status)
}

// ServiceError описывает ответ бэкенда с кодом вне диапазона 2xx.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status: %d", e.Status)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.Status, e.Detail)
}

// NetworkError описывает ошибку транспорта, когда ответ не получен.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("do request: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnauthorized сообщает, требует ли ошибка сброса сессии.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// IsValidation сообщает, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
