package record

import (
	"context"
	"fmt"
)

// MessageKey — ключ шаблона сообщения валидации.
type MessageKey string

// Ключи сообщений валидации. Совпадают с ключами каталогов i18n.
const (
	MsgRequired    MessageKey = "validation.required"
	MsgEmail       MessageKey = "validation.email"
	MsgMin         MessageKey = "validation.min"
	MsgMax         MessageKey = "validation.max"
	MsgEqual       MessageKey = "validation.equal"
	MsgCompare     MessageKey = "validation.compare"
	MsgInteger     MessageKey = "validation.integer"
	MsgNumeric     MessageKey = "validation.numeric"
	MsgNumericMin  MessageKey = "validation.numericmin"
	MsgNumericMax  MessageKey = "validation.numericmax"
	MsgUnique      MessageKey = "validation.unique"
	MsgUniqueCheck MessageKey = "validation.uniquecheck"
)

// Messages форматирует сообщения валидации. Реализация может учитывать
// язык запроса из ctx.
type Messages interface {
	Message(ctx context.Context, key MessageKey, args ...any) string
}

// MessagesFunc — адаптер функции к Messages.
type MessagesFunc func(ctx context.Context, key MessageKey, args ...any) string

// Message вызывает f.
func (f MessagesFunc) Message(ctx context.Context, key MessageKey, args ...any) string {
	return f(ctx, key, args...)
}

// DefaultTemplates — шаблоны сообщений по умолчанию (английские).
var DefaultTemplates = map[MessageKey]string{
	MsgRequired:    "%s is required.",
	MsgEmail:       "Email address must be valid.",
	MsgMin:         "%s must be at least %d characters.",
	MsgMax:         "%s cannot be longer than %d characters.",
	MsgEqual:       "%s must be %d characters.",
	MsgCompare:     "%s and %s do not match.",
	MsgInteger:     "%s must be an integer.",
	MsgNumeric:     "%s must be a number.",
	MsgNumericMin:  "Smallest allowed value for %s is %s.",
	MsgNumericMax:  "Largest allowed value for %s is %s.",
	MsgUnique:      "This %s is already in use.",
	MsgUniqueCheck: "Could not check that this %s is unique, try again later.",
}

// DefaultMessages форматирует сообщения по DefaultTemplates.
var DefaultMessages Messages = MessagesFunc(func(_ context.Context, key MessageKey, args ...any) string {
	tmpl, ok := DefaultTemplates[key]
	if !ok {
		return string(key)
	}
	return fmt.Sprintf(tmpl, args...)
})
