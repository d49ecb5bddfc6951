// users.go — регистрация, вход и выход пользователей.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/goartstore/folio/internal/api/middleware"
	"github.com/bigkaa/goartstore/folio/internal/i18n"
	"github.com/bigkaa/goartstore/folio/internal/service"
	"github.com/bigkaa/goartstore/folio/internal/session"
)

// UserHandler — обработчик пользователей.
type UserHandler struct {
	responder
	users      *service.UserService
	sessionTTL time.Duration
	now        func() time.Time
}

// NewUserHandler создаёт обработчик пользователей.
// sessionTTL — время жизни входа.
func NewUserHandler(users *service.UserService, sessionTTL time.Duration, bundle *i18n.Bundle, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder: responder{
			bundle: bundle,
			logger: logger.With(slog.String("component", "user_handler")),
		},
		users:      users,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Register — POST /users/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	user, err := h.users.Register(r.Context(), values)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.flash(r, session.FlashSuccess, "flash.registered")
	w.Header().Set("Location", "/users/login")
	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
		"email":    user.Email,
		"role_id":  user.RoleID,
	})
}

// Login — POST /users/login. Пользователь сохраняется в сессии.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	user, err := h.users.Login(r.Context(), values)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	sess.Login(user.UserID, user.Username, user.RoleID, h.now().Add(h.sessionTTL))
	h.flash(r, session.FlashSuccess, "flash.logged_in", user.Username)
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
		"role_id":  user.RoleID,
	})
}

// Logout — POST /users/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.SessionFromContext(r.Context()).Logout()
	h.flash(r, session.FlashSuccess, "flash.logged_out")
	h.writeJSON(w, r, http.StatusOK, nil)
}

// Me — GET /users/me. Текущий пользователь без хэша пароля.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	subj := middleware.SubjectFromContext(r.Context())
	row, err := h.users.Get(r.Context(), subj.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, row)
}

// List — GET /users. Пользователи по имени, без хэшей паролей.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.users.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, rows)
}
