package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func limitedRequest(userID uuid.UUID) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/timer/start", nil)
	return r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest(userID))
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(userID))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 over the limit, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on 429")
	}
}

func TestRateLimiter_KeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := uuid.New()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(first))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for first user, got %d", w.Code)
	}

	// Same remote address, different user: gets its own bucket.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(uuid.New()))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for second user, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(first))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 for first user's second request, got %d", w.Code)
	}
}
