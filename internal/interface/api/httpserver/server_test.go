package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
	"alertBot/internal/usecase/rules"
)

type stubRules struct {
	list []rules.RuleDTO
	err  error
}

func (s stubRules) List(context.Context) ([]rules.RuleDTO, error) { return s.list, s.err }

type stubNotifications struct {
	gotLimit int
	list     []*domain.Notification
}

func (s *stubNotifications) ListNotifications(_ context.Context, limit int) ([]*domain.Notification, error) {
	s.gotLimit = limit
	return s.list, nil
}

type stubWebhook struct{ calls int }

func (s *stubWebhook) HandleEventSub(c echo.Context) error {
	s.calls++
	return c.NoContent(http.StatusNoContent)
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, New(Config{}, Deps{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestOverlayPage(t *testing.T) {
	rec := do(t, New(Config{Page: []byte("<html>overlay</html>")}, Deps{}), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Equal(t, "<html>overlay</html>", rec.Body.String())

	rec = do(t, New(Config{}, Deps{}), http.MethodGet, "/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bits-100.gif"), []byte("GIF89a"), 0o644))

	s := New(Config{ImagesDir: dir}, Deps{})
	rec := do(t, s, http.MethodGet, "/images/bits-100.gif")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GIF89a", rec.Body.String())
}

func TestWebhookRoute(t *testing.T) {
	hook := &stubWebhook{}
	rec := do(t, New(Config{}, Deps{Webhook: hook}), http.MethodPost, "/webhooks/eventsub")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, hook.calls)

	rec = do(t, New(Config{}, Deps{}), http.MethodPost, "/webhooks/eventsub")
	assert.NotEqual(t, http.StatusNoContent, rec.Code)
}

func TestRulesAPI(t *testing.T) {
	s := New(Config{}, Deps{Rules: stubRules{list: []rules.RuleDTO{{Name: "!hype", Kind: "command", Source: "file"}}}})
	rec := do(t, s, http.MethodGet, "/api/rules")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []rules.RuleDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "!hype", got[0].Name)

	s = New(Config{}, Deps{Rules: stubRules{err: errors.New("boom")}})
	assert.Equal(t, http.StatusInternalServerError, do(t, s, http.MethodGet, "/api/rules").Code)
}

func TestNotificationsAPI(t *testing.T) {
	created := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	store := &stubNotifications{list: []*domain.Notification{
		{ID: 7, Type: domain.NotificationBits, Username: "ana", Amount: 500, CreatedAt: created},
	}}
	s := New(Config{}, Deps{Notifications: store})

	rec := do(t, s, http.MethodGet, "/api/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultNotificationLimit, store.gotLimit)
	assert.JSONEq(t, `[{"id":7,"type":"bits","username":"ana","amount":500,"created_at":"2026-03-01T20:00:00Z"}]`, rec.Body.String())

	do(t, s, http.MethodGet, "/api/notifications?limit=5000")
	assert.Equal(t, maxNotificationLimit, store.gotLimit)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/notifications?limit=-1").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, New(Config{}, Deps{}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
