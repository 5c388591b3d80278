package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/idempotency"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/simulator"
)

func newTestRouter(opts ...simulator.Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sim := simulator.New(idempotency.NewMemoryStore(), opts...)
	RegisterRoutes(r, HandlerConfig{Simulator: sim})
	return r
}

func doSubmit(t *testing.T, r *gin.Engine, requestID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func forceOutcome(o simulator.Outcome) simulator.Option {
	return simulator.WithDecider(func() simulator.Outcome { return o })
}

func TestSubmit_MissingRequestID(t *testing.T) {
	r := newTestRouter(forceOutcome(simulator.OutcomeSuccess))
	w := doSubmit(t, r, "", `{"email":"a@b.com","amount":10}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmit_MalformedBody(t *testing.T) {
	r := newTestRouter(forceOutcome(simulator.OutcomeSuccess))
	for _, body := range []string{`{}`, `{"email":"a@b.com"}`, `{"amount":10}`, `not-json`} {
		w := doSubmit(t, r, "k1", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestSubmit_ImmediateSuccess(t *testing.T) {
	r := newTestRouter(forceOutcome(simulator.OutcomeSuccess))
	w := doSubmit(t, r, "k1", `{"email":"a@b.com","amount":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["requestId"] != "k1" || body["email"] != "a@b.com" || body["amount"] != float64(10) {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["timestamp"] == nil || body["message"] == nil {
		t.Fatalf("missing timestamp/message: %v", body)
	}
}

func TestSubmit_TransientFailure(t *testing.T) {
	r := newTestRouter(forceOutcome(simulator.OutcomeTransient))
	w := doSubmit(t, r, "k1", `{"email":"a@b.com","amount":10}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["requestId"] != "k1" || body["retryAfter"] != float64(1000) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSubmit_DelayedAcceptance(t *testing.T) {
	r := newTestRouter(
		forceOutcome(simulator.OutcomeDelayed),
		simulator.WithDelayFunc(func() time.Duration { return 6 * time.Second }),
		simulator.WithAfterFunc(func(time.Duration, func()) *time.Timer { return nil }),
	)
	w := doSubmit(t, r, "k1", `{"email":"a@b.com","amount":10}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["requestId"] != "k1" || body["estimatedDelay"] != float64(6000) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSubmit_ReplayReturnsOriginalTimestamp(t *testing.T) {
	r := newTestRouter(forceOutcome(simulator.OutcomeSuccess))

	first := decodeBody(t, doSubmit(t, r, "k1", `{"email":"a@b.com","amount":10}`))
	second := decodeBody(t, doSubmit(t, r, "k1", `{"email":"a@b.com","amount":10}`))

	if first["timestamp"] != second["timestamp"] {
		t.Fatalf("replay timestamp differs: %v vs %v", first["timestamp"], second["timestamp"])
	}
	if first["requestId"] != second["requestId"] {
		t.Fatalf("replay requestId differs")
	}
}

func TestStatus_UnknownAndLifecycle(t *testing.T) {
	var fire func()
	r := newTestRouter(
		forceOutcome(simulator.OutcomeDelayed),
		simulator.WithDelayFunc(func() time.Duration { return 6 * time.Second }),
		simulator.WithAfterFunc(func(_ time.Duration, f func()) *time.Timer {
			fire = f
			return nil
		}),
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}

	doSubmit(t, r, "k1", `{"email":"a@b.com","amount":10}`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status/k1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != idempotency.StatusPending {
		t.Fatalf("expected pending, got %v", body["status"])
	}

	fire()

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status/k1", nil))
	body := decodeBody(t, w)
	if body["status"] != idempotency.StatusSuccess || body["timestamp"] == nil {
		t.Fatalf("expected success with timestamp, got %v", body)
	}
}
