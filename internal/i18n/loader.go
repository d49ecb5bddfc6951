// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"fmt"
	"log/slog"
)

// Load создаёт Bundle и загружает locales/en.json и locales/ru.json.
func Load(defaultLang string, logger *slog.Logger) (*Bundle, error) {
	bundle := NewBundle(defaultLang, logger)
	langs := []string{"en", "ru"}

	for _, lang := range langs {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}

	logger.Info("i18n каталоги загружены",
		slog.Int("languages", len(langs)),
		slog.String("default", bundle.defaultLang),
	)
	return bundle, nil
}
