package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/folio/internal/session"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager("test-session-secret-value", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// sessionCookie возвращает cookie сессии из ответа или nil.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestSession_FlashShownOnNextRequest(t *testing.T) {
	mgr := newTestManager(t)
	mw := Session(mgr, testLogger())

	// Первый запрос ставит flash в очередь
	first := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := SessionFromContext(r.Context())
		if len(data.Flash) != 0 {
			t.Errorf("flash первого запроса = %v, ожидался пустой", data.Flash)
		}
		data.SetFlash(session.FlashSuccess, "сохранено")
		w.WriteHeader(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()
	first.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/articles/write", nil))

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("cookie сессии не записан")
	}

	// Второй запрос видит сообщение, очередь очищается
	var shown map[string]string
	second := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shown = SessionFromContext(r.Context()).Flash
		_, _ = w.Write([]byte("ok"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	second.ServeHTTP(rec, req)

	if shown[session.FlashSuccess] != "сохранено" {
		t.Errorf("flash = %v, ожидалось сообщение из очереди", shown)
	}
	cleared := sessionCookie(rec)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("гостевая сессия без очереди должна удалить cookie, получено %+v", cleared)
	}
}

func TestSession_UnchangedWritesNoCookie(t *testing.T) {
	mw := Session(newTestManager(t), testLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles", nil))

	if c := sessionCookie(rec); c != nil {
		t.Errorf("неизменённая сессия записала cookie: %+v", c)
	}
}

func TestSession_SavedWhenHandlerWritesNothing(t *testing.T) {
	mw := Session(newTestManager(t), testLogger())
	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		SessionFromContext(r.Context()).Login(7, "alice", 1, time.Now().Add(time.Hour))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/login", nil))

	if c := sessionCookie(rec); c == nil || c.Value == "" {
		t.Error("cookie сессии не записан")
	}
}

func TestSession_CorruptCookieBecomesGuest(t *testing.T) {
	mw := Session(newTestManager(t), testLogger())

	var subjectID int64 = -1
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subjectID = SubjectFromContext(r.Context()).UserID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not-a-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, ожидался 200", rec.Code)
	}
	if subjectID != 0 {
		t.Errorf("user_id = %d, ожидался гость", subjectID)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Error("повреждённый cookie должен быть удалён")
	}
}

func TestSubjectFromContext_NoSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !SubjectFromContext(req.Context()).IsGuest() {
		t.Error("без сессии ожидался гость")
	}
}
