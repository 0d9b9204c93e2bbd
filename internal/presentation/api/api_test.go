package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/infrastructure/configs"
	"github.com/2vw/equinox/internal/infrastructure/logging"
	"github.com/2vw/equinox/internal/infrastructure/ratelimiter"
	"github.com/2vw/equinox/internal/infrastructure/snowflake"
	"github.com/2vw/equinox/internal/infrastructure/ws"
	"github.com/2vw/equinox/internal/persistence/repository"
	healthHandler "github.com/2vw/equinox/internal/presentation/handler/health"
	messagesHandler "github.com/2vw/equinox/internal/presentation/handler/messages"
)

type nopLogger struct{}

func (nopLogger) Init() {}
func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

type dropPublisher struct{}

func (dropPublisher) Publish(context.Context, string, any) error { return nil }

func newTestApp(t *testing.T, limit int, window time.Duration) http.Handler {
	t.Helper()

	generator, err := snowflake.New(1)
	if err != nil {
		t.Fatal(err)
	}

	rooms := repository.NewMemoryRoomRepository(
		domain.Room{ID: 100, Type: domain.RoomTypeText, Name: "general"},
	)
	messages := repository.NewMemoryMessageRepository()

	users := repository.NewMemoryUserRepository()
	users.Put("token-ana", domain.User{ID: 7, Username: "ana", Discriminator: "0001"})

	mh := messagesHandler.NewHandler(rooms, messages, generator, dropPublisher{}, nopLogger{}, time.Second, time.Second)

	rl := ratelimiter.New(ratelimiter.Options{Requests: limit, Window: window})

	app := NewApplication(
		configs.Config{},
		healthHandler.NewHandler(nil),
		mh,
		users,
		ws.NewHub(),
		nopLogger{},
		rl,
	)

	return app.Mount()
}

func doCreate(mux http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/rooms/100/messages", bytes.NewReader([]byte(`{"content":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	mux := newTestApp(t, 50, time.Minute)

	if rec := doCreate(mux, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing credential: got %d, want 401", rec.Code)
	}
	if rec := doCreate(mux, "token-unknown"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown credential: got %d, want 401", rec.Code)
	}
	if rec := doCreate(mux, "token-ana"); rec.Code != http.StatusOK {
		t.Fatalf("valid credential: got %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestAdmissionLimiterThrottlesPerCredential(t *testing.T) {
	mux := newTestApp(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if rec := doCreate(mux, "token-ana"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rec.Code)
		}
	}

	rec := doCreate(mux, "token-ana")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over budget: got %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("X-RateLimit-Limit: got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining: got %q", got)
	}
	if got := rec.Header().Get("Retry-After"); got == "" {
		t.Fatal("Retry-After header missing on 429")
	}
}

func TestAdmissionLimiterLeavesReadsAlone(t *testing.T) {
	mux := newTestApp(t, 1, time.Minute)

	if rec := doCreate(mux, "token-ana"); rec.Code != http.StatusOK {
		t.Fatalf("first create: got %d", rec.Code)
	}
	if rec := doCreate(mux, "token-ana"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second create: got %d, want 429", rec.Code)
	}

	// Reads and typing are outside the admission budget.
	req := httptest.NewRequest("GET", "/api/rooms/100/messages", nil)
	req.Header.Set("Authorization", "token-ana")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list while throttled: got %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/rooms/100/typing", nil)
	req.Header.Set("Authorization", "token-ana")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("typing while throttled: got %d, want 204", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestApp(t, 50, time.Minute)

	for _, path := range []string{"/api/health", "/api/healthz", "/api/ready", "/api/live"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got %d, want 200", path, rec.Code)
		}
	}
}
