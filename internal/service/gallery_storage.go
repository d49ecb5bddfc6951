// gallery_storage.go — каталоги галерей и файлы изображений на диске.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Алфавит и длина имени каталога галереи.
const (
	dirAlphabet   = "abcdefghijklmnopqrstuvwxyz1234567890"
	dirNameLength = 8
	// provisionAttempts — число попыток подобрать свободное имя.
	provisionAttempts = 16
)

var (
	// ErrUnsupportedImage — расширение файла не входит в CMS_IMAGE_EXTENSIONS.
	ErrUnsupportedImage = errors.New("неподдерживаемый тип изображения")
	// ErrImageTooLarge — файл больше CMS_UPLOAD_MAX_BYTES.
	ErrImageTooLarge = errors.New("изображение слишком большое")
	// ErrInvalidPath — путь выходит за корень галерей.
	ErrInvalidPath = errors.New("недопустимый путь")
)

// GalleryStorage — файловое хранилище галерей под корнем root.
// Реализует model.DirProvisioner.
type GalleryStorage struct {
	root       string
	extensions []string
	maxBytes   int64
	logger     *slog.Logger
}

// NewGalleryStorage создаёт хранилище. Корень создаётся, если его нет.
func NewGalleryStorage(root string, extensions []string, maxBytes int64, logger *slog.Logger) (*GalleryStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания корня галерей %s: %w", root, err)
	}
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return &GalleryStorage{
		root:       root,
		extensions: exts,
		maxBytes:   maxBytes,
		logger:     logger.With(slog.String("component", "gallery_storage")),
	}, nil
}

// Provision создаёт каталог со случайным именем из 8 символов.
func (gs *GalleryStorage) Provision(ctx context.Context) (string, error) {
	for range provisionAttempts {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name, err := randomName(dirNameLength)
		if err != nil {
			return "", err
		}
		err = os.Mkdir(filepath.Join(gs.root, name), 0o755)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("ошибка создания каталога галереи: %w", err)
		}
		gs.logger.Debug("Каталог галереи создан", slog.String("dir", name))
		return name, nil
	}
	return "", errors.New("не удалось подобрать свободное имя каталога галереи")
}

// Remove удаляет каталог галереи с содержимым. Отсутствующий каталог — не ошибка.
func (gs *GalleryStorage) Remove(_ context.Context, dir string) error {
	path, err := gs.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("ошибка удаления каталога %s: %w", dir, err)
	}
	return nil
}

// SaveImage записывает изображение в каталог галереи под именем
// <uuid>.<расширение исходного файла> и возвращает это имя.
func (gs *GalleryStorage) SaveImage(dir, originalName string, src io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" || !slices.Contains(gs.extensions, ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, originalName)
	}

	dirPath, err := gs.resolve(dir)
	if err != nil {
		return "", err
	}
	filename := uuid.New().String() + "." + ext
	path := filepath.Join(dirPath, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла изображения: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(src, gs.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("ошибка записи изображения: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("ошибка записи изображения: %w", closeErr)
	case n > gs.maxBytes:
		err = fmt.Errorf("%w: больше %d байт", ErrImageTooLarge, gs.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return filename, nil
}

// RemoveImage удаляет файл изображения и его производные (миниатюры),
// имена которых содержат filename.
func (gs *GalleryStorage) RemoveImage(dir, filename string) error {
	if filename == "" {
		return nil
	}
	dirPath, err := gs.resolve(dir)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dirPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка чтения каталога %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), filename) {
			continue
		}
		if err := os.Remove(filepath.Join(dirPath, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("ошибка удаления %s: %w", e.Name(), err)
		}
	}
	return nil
}

// resolve возвращает путь каталога галереи внутри корня.
func (gs *GalleryStorage) resolve(dir string) (string, error) {
	if dir == "" || !filepath.IsLocal(dir) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, dir)
	}
	return filepath.Join(gs.root, dir), nil
}

func randomName(n int) (string, error) {
	limit := big.NewInt(int64(len(dirAlphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("ошибка генерации имени: %w", err)
		}
		sb.WriteByte(dirAlphabet[i.Int64()])
	}
	return sb.String(), nil
}
