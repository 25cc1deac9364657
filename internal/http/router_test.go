package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-bot/internal/config"
)

type fakeDispatcher struct {
	updates []*gotgbot.Update
}

func (f *fakeDispatcher) HandleUpdate(_ context.Context, u *gotgbot.Update) {
	f.updates = append(f.updates, u)
}

func newServer(t *testing.T) (*gin.Engine, *fakeDispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := &fakeDispatcher{}
	r := gin.New()
	RegisterRoutes(r, d, config.Config{
		BotToken:  "123:secret",
		RateRPS:   100,
		RateBurst: 100,
	})
	return r, d
}

func TestHealth(t *testing.T) {
	r, _ := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("health = %d %q", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
}

func TestWebhook_DispatchesValidUpdate(t *testing.T) {
	r, d := newServer(t)
	body := `{"update_id":7,"message":{"message_id":1,"text":"Alien","chat":{"id":5,"type":"private"}}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/123:secret", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(d.updates) != 1 || d.updates[0].UpdateId != 7 || d.updates[0].Message.Text != "Alien" {
		t.Fatalf("dispatched = %+v", d.updates)
	}
}

func TestWebhook_RejectsBadToken(t *testing.T) {
	r, d := newServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/wrong", strings.NewReader(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(d.updates) != 0 {
		t.Fatalf("update dispatched despite bad token")
	}
}

func TestWebhook_RejectsMalformedPayload(t *testing.T) {
	r, d := newServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/123:secret", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(d.updates) != 0 {
		t.Fatalf("malformed update dispatched")
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
