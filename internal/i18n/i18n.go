// Пакет i18n — переводы сообщений API (en, ru).
// Язык запроса определяет Middleware: cookie "lang" → Accept-Language →
// язык по умолчанию из CMS_DEFAULT_LANGUAGE.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

// Поддерживаемые языки.
var (
	SupportedLanguages = []language.Tag{
		language.English,
		language.Russian,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — каталоги переводов всех языков.
type Bundle struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string // lang → key → translation
	defaultLang string
	logger      *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(defaultLang string, logger *slog.Logger) *Bundle {
	if !IsSupported(defaultLang) {
		defaultLang = "en"
	}
	return &Bundle{
		catalogs:    make(map[string]map[string]string),
		defaultLang: defaultLang,
		logger:      logger,
	}
}

// DefaultLang возвращает язык по умолчанию.
func (b *Bundle) DefaultLang() string { return b.defaultLang }

// LoadMessages загружает плоский JSON-каталог {"key": "translation"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	b.logger.Debug("i18n каталог загружен",
		slog.String("lang", lang),
		slog.Int("keys", len(messages)),
	)
	return nil
}

// lookup ищет перевод в языке lang, затем в английском.
func (b *Bundle) lookup(lang, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg, true
	}
	if lang != "en" {
		if msg, ok := b.catalogs["en"][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// Translate возвращает перевод по ключу. Ненайденный ключ возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	if msg, ok := b.lookup(lang, key); ok {
		return msg
	}
	return key
}

// Translatef возвращает перевод с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// T переводит ключ на язык из контекста.
func (b *Bundle) T(ctx context.Context, key string, args ...any) string {
	return b.Translatef(b.LangFromContext(ctx), key, args...)
}

// Messages возвращает сообщения валидации record на языке запроса.
// Ключ без перевода форматируется шаблоном record.DefaultMessages.
func (b *Bundle) Messages() record.Messages {
	return record.MessagesFunc(func(ctx context.Context, key record.MessageKey, args ...any) string {
		template, ok := b.lookup(b.LangFromContext(ctx), string(key))
		if !ok {
			return record.DefaultMessages.Message(ctx, key, args...)
		}
		return formatFunc(template, args...)
	})
}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста или возвращает язык по умолчанию.
func (b *Bundle) LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return b.defaultLang
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из
// JSON-каталогов, go vet не может их проверить.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf

// IsSupported сообщает, что язык поддерживается.
func IsSupported(lang string) bool {
	return lang == "en" || lang == "ru"
}

// MatchLanguage определяет язык по заголовку Accept-Language.
// Возвращает "en" или "ru".
func MatchLanguage(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	if base.String() == "ru" {
		return "ru"
	}
	return "en"
}
