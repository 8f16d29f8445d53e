package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"surplus-saver-api/internal/model"
)

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run without a token")
	})
	mw := NewAuthMiddleware(nil)(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	t.Run("x-token header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Token", "ssv_abc")
		if got := bearerToken(req); got != "ssv_abc" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("authorization bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer ssv_abc")
		if got := bearerToken(req); got != "ssv_abc" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("x-token wins over authorization", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Token", "first")
		req.Header.Set("Authorization", "Bearer second")
		if got := bearerToken(req); got != "first" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if got := bearerToken(req); got != "" {
			t.Fatalf("got %q", got)
		}
	})
}

func TestGetTokenData(t *testing.T) {
	t.Parallel()

	if data := GetTokenData(context.Background()); data != nil {
		t.Fatalf("expected nil without auth, got %+v", data)
	}

	want := &model.TokenData{UserID: 7, Role: model.RoleStore}
	ctx := context.WithValue(context.Background(), TokenDataKey, want)
	if got := GetTokenData(ctx); got != want {
		t.Fatalf("expected token data back, got %+v", got)
	}
}
