package http_test

import (
	"bytes"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/foodshare-service/internal/hub"
	api "github.com/tazhibayda/foodshare-service/internal/http"
	"github.com/tazhibayda/foodshare-service/internal/listing"
	"github.com/tazhibayda/foodshare-service/internal/log"
	"github.com/tazhibayda/foodshare-service/internal/queue"
	"github.com/tazhibayda/foodshare-service/internal/repo"
	"github.com/tazhibayda/foodshare-service/internal/security"
)

const testSecret = "test_secret"

type testEnv struct {
	T      *testing.T
	Store  *repo.Memory
	Hub    *hub.Hub
	Svc    *listing.Service
	Router *gin.Engine
	Clock  *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// dev-логгер, чтобы паники gin.Recovery были видны в выводе теста
	if _, err := log.Init(false); err != nil {
		t.Fatalf("log init: %v", err)
	}

	store := repo.NewMemory()
	h := hub.New()
	t.Cleanup(h.Close)

	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := listing.NewService(store, h, queue.NewNoop()).WithNow(clk.Now)

	handler := api.NewHandler(svc, h)

	gin.SetMode(gin.TestMode)
	r := api.NewRouter(handler, testSecret, nil, 0) // лимитер выключен в тестах

	return &testEnv{T: t, Store: store, Hub: h, Svc: svc, Router: r, Clock: clk}
}

func token(t *testing.T, uid, role, name string) string {
	t.Helper()
	tok, err := security.MakeAccess(testSecret, uid, role, name, time.Hour)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	return tok
}

func (e *testEnv) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	e.Router.ServeHTTP(w, req)
	return w
}
