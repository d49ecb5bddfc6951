// Пакет session — сессии пользователей в зашифрованном cookie.
// Шифрование AES-256-GCM, ключ выводится из CMS_SESSION_SECRET.
// Flash-сообщения ставятся в очередь и показываются на следующем запросе.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CookieName — имя cookie сессии.
const CookieName = "folio_session"

// Типы flash-сообщений.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Data — данные сессии.
type Data struct {
	// UserID — вошедший пользователь, 0 для гостя
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	RoleID   int64  `json:"role_id,omitempty"`
	// ExpiresAt — время истечения входа (Unix timestamp)
	ExpiresAt int64 `json:"expires_at,omitempty"`
	// FlashQueue — сообщения для следующего запроса
	FlashQueue map[string]string `json:"flash_queue,omitempty"`
	// Flash — сообщения текущего запроса, в cookie не сохраняются
	Flash map[string]string `json:"-"`

	changed bool
}

// IsLogged сообщает, что пользователь вошёл.
func (d *Data) IsLogged() bool { return d.UserID != 0 }

// IsExpired проверяет, истёк ли вход.
func (d *Data) IsExpired(now time.Time) bool {
	return d.ExpiresAt != 0 && now.Unix() >= d.ExpiresAt
}

// Changed сообщает, что сессию нужно записать в ответ.
func (d *Data) Changed() bool { return d.changed }

// Login сохраняет пользователя в сессии.
func (d *Data) Login(userID int64, username string, roleID int64, expiresAt time.Time) {
	d.UserID, d.Username, d.RoleID = userID, username, roleID
	d.ExpiresAt = expiresAt.Unix()
	d.changed = true
}

// Logout удаляет пользователя из сессии. Очередь flash сохраняется.
func (d *Data) Logout() {
	d.UserID, d.Username, d.RoleID, d.ExpiresAt = 0, "", 0, 0
	d.changed = true
}

// Rotate переносит очередь flash в сообщения текущего запроса.
func (d *Data) Rotate() {
	d.Flash = d.FlashQueue
	if len(d.FlashQueue) > 0 {
		d.changed = true
	}
	d.FlashQueue = nil
}

// SetFlash ставит сообщение в очередь следующего запроса.
func (d *Data) SetFlash(kind, message string) {
	if d.FlashQueue == nil {
		d.FlashQueue = make(map[string]string)
	}
	d.FlashQueue[kind] = message
	d.changed = true
}

// SetFlashNow добавляет сообщение к текущему ответу.
func (d *Data) SetFlashNow(kind, message string) {
	if d.Flash == nil {
		d.Flash = make(map[string]string)
	}
	d.Flash[kind] = message
}

// Manager шифрует Data в cookie и обратно.
type Manager struct {
	gcm    cipher.AEAD
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager создаёт менеджер сессий.
// secret — base64-ключ из 32 байт или произвольная строка (хэшируется SHA-256).
func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("пустой секрет сессии")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(key) != 32 {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Manager{gcm: gcm, ttl: ttl, secure: secure, now: time.Now}, nil
}

// TTL возвращает время жизни входа.
func (m *Manager) TTL() time.Duration { return m.ttl }

// ExpiresAt возвращает время истечения входа, начатого сейчас.
func (m *Manager) ExpiresAt() time.Time { return m.now().Add(m.ttl) }

// Encrypt шифрует Data и возвращает base64-строку.
func (m *Manager) Encrypt(data *Data) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, m.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := m.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в Data.
func (m *Manager) Decrypt(encrypted string) (*Data, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := m.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := m.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data Data
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return &data, nil
}

// Load читает сессию из запроса. Без cookie возвращается пустая сессия.
// Повреждённый cookie возвращает пустую сессию вместе с ошибкой,
// истёкший вход сбрасывается.
func (m *Manager) Load(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return &Data{}, nil
	}
	if err != nil {
		return &Data{changed: true}, err
	}

	data, err := m.Decrypt(cookie.Value)
	if err != nil {
		return &Data{changed: true}, err
	}
	if data.IsLogged() && data.IsExpired(m.now()) {
		data.Logout()
	}
	return data, nil
}

// Save записывает сессию в cookie ответа.
// Пустая гостевая сессия удаляет cookie.
func (m *Manager) Save(w http.ResponseWriter, data *Data) error {
	if !data.IsLogged() && len(data.FlashQueue) == 0 {
		m.Clear(w)
		return nil
	}

	encrypted, err := m.Encrypt(data)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear удаляет cookie сессии.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
