// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bigkaa/goartstore/folio/internal/domain/model"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrForbidden — у пользователя нет разрешения.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrInvalidCredentials — неверное имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrUnavailable — база данных недоступна.
	ErrUnavailable = errors.New("база данных недоступна")
)

// ValidationError — ошибки полей формы.
// errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// validationError собирает ошибки записи.
func validationError(r *record.Record) error {
	return &ValidationError{Fields: r.Errors()}
}

// mapRecordError переводит ошибки слоя записей в ошибки сервиса.
func mapRecordError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, record.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, record.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, model.ErrInvalidCredentials):
		return ErrInvalidCredentials
	}
	return err
}
