package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"surplus-saver-api/internal/clock"
	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
)

// fakeBagRepo backs BagService in handler tests.
type fakeBagRepo struct {
	bags   map[int64]model.SurpriseBag
	nextID int64
}

func newFakeBagRepo() *fakeBagRepo {
	return &fakeBagRepo{bags: make(map[int64]model.SurpriseBag)}
}

func (f *fakeBagRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeBagRepo) CreateBag(ctx context.Context, b model.SurpriseBag) (int64, error) {
	f.nextID++
	b.ID = f.nextID
	f.bags[b.ID] = b
	return b.ID, nil
}

func (f *fakeBagRepo) GetBag(ctx context.Context, id int64) (model.SurpriseBag, error) {
	b, ok := f.bags[id]
	if !ok {
		return model.SurpriseBag{}, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeBagRepo) GetBagOwned(ctx context.Context, id, storeID int64) (model.SurpriseBag, error) {
	b, ok := f.bags[id]
	if !ok || b.StoreID != storeID {
		return model.SurpriseBag{}, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeBagRepo) UpdateBag(ctx context.Context, b model.SurpriseBag) error {
	if _, ok := f.bags[b.ID]; !ok {
		return model.ErrNotFound
	}
	f.bags[b.ID] = b
	return nil
}

func (f *fakeBagRepo) DeleteBag(ctx context.Context, id, storeID int64) error {
	b, ok := f.bags[id]
	if !ok || b.StoreID != storeID {
		return model.ErrNotFound
	}
	delete(f.bags, id)
	return nil
}

func (f *fakeBagRepo) ListAvailableBags(ctx context.Context, filter model.BagFilter) ([]model.SurpriseBag, error) {
	var out []model.SurpriseBag
	for _, b := range f.bags {
		if b.Status == model.BagStatusAvailable {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBagRepo) ListBagsByStore(ctx context.Context, storeID int64, search, sort string) ([]model.SurpriseBag, error) {
	var out []model.SurpriseBag
	for _, b := range f.bags {
		if b.StoreID == storeID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBagRepo) StoreStats(ctx context.Context, storeID int64) (model.StoreStats, error) {
	return model.StoreStats{}, nil
}

func testBagService(repo *fakeBagRepo) *service.BagService {
	return service.NewBagService(repo, nil, 0, clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
}

// asUser injects authenticated token data the way the auth middleware does.
func asUser(r *http.Request, userID int64, role model.Role) *http.Request {
	data := &model.TokenData{UserID: userID, Role: role}
	return r.WithContext(context.WithValue(r.Context(), middleware.TokenDataKey, data))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestBagHandler_List(t *testing.T) {
	t.Parallel()

	repo := newFakeBagRepo()
	repo.bags[1] = model.SurpriseBag{
		ID: 1, StoreID: 7, Title: "Pastry box", Status: model.BagStatusAvailable,
		Quantity: 3, IsActive: true, OriginalPrice: 10000, DiscountPrice: 7000,
	}
	repo.bags[2] = model.SurpriseBag{
		ID: 2, StoreID: 7, Title: "Gone", Status: model.BagStatusSold, IsActive: true,
	}
	h := NewBagHandler(testBagService(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bags", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	var bags []model.SurpriseBag
	if err := json.Unmarshal(env.Data, &bags); err != nil {
		t.Fatalf("decode bags: %v", err)
	}
	if len(bags) != 1 || bags[0].Title != "Pastry box" {
		t.Fatalf("expected only the available bag, got %+v", bags)
	}
}

func TestBagHandler_ListBadFilter(t *testing.T) {
	t.Parallel()

	h := NewBagHandler(testBagService(newFakeBagRepo()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bags?price_min=abc", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBagHandler_Create(t *testing.T) {
	t.Parallel()

	t.Run("valid bag", func(t *testing.T) {
		repo := newFakeBagRepo()
		h := NewBagHandler(testBagService(repo))

		body := `{"title":"Box","description":"d","contents":"c","original_price":10000,"discount_price":7000,"quantity":5}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/bags", strings.NewReader(body)), 7, model.RoleStore)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(repo.bags) != 1 {
			t.Fatalf("expected bag persisted")
		}
		for _, b := range repo.bags {
			if b.StoreID != 7 {
				t.Fatalf("expected ownership from token, got store %d", b.StoreID)
			}
		}
	})

	t.Run("price invariant maps to 400", func(t *testing.T) {
		h := NewBagHandler(testBagService(newFakeBagRepo()))

		body := `{"title":"Box","description":"d","contents":"c","original_price":5000,"discount_price":7000,"quantity":5}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/bags", strings.NewReader(body)), 7, model.RoleStore)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != "BAD_REQUEST" {
			t.Fatalf("expected BAD_REQUEST, got %+v", env.Error)
		}
	})
}

func TestBagHandler_UpdateNotOwned(t *testing.T) {
	t.Parallel()

	repo := newFakeBagRepo()
	repo.bags[1] = model.SurpriseBag{
		ID: 1, StoreID: 7, Status: model.BagStatusAvailable,
		OriginalPrice: 10000, DiscountPrice: 7000, Quantity: 3, IsActive: true,
	}
	h := NewBagHandler(testBagService(repo))

	r := chi.NewRouter()
	r.Put("/bags/{id}", h.Update)

	req := asUser(httptest.NewRequest(http.MethodPut, "/bags/1", strings.NewReader(`{"title":"x"}`)), 99, model.RoleStore)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another store's bag, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %+v", env.Error)
	}
}

func TestRequireAction(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := middleware.RequireAction(service.ActionManageBags)(next)

	t.Run("store allowed", func(t *testing.T) {
		req := asUser(httptest.NewRequest(http.MethodPost, "/bags", nil), 7, model.RoleStore)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("customer forbidden", func(t *testing.T) {
		req := asUser(httptest.NewRequest(http.MethodPost, "/bags", nil), 3, model.RoleCustomer)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bags", nil)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestFailMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
		name string
	}{
		{model.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: bad input", model.ErrInvalidArgument), http.StatusBadRequest, "BAD_REQUEST"},
		{model.ErrInsufficientFunds, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{model.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{model.ErrEmailTaken, http.StatusConflict, "CONFLICT"},
		{model.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("driver exploded"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		fail(rec, tc.err)
		if rec.Code != tc.code {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.code, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != tc.name {
			t.Errorf("%v: expected code %s, got %+v", tc.err, tc.name, env.Error)
		}
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req, "id")
		if !ok {
			return
		}
		fmt.Fprintf(w, "%d", id)
	})

	t.Run("numeric id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "42" {
			t.Fatalf("expected 42, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("garbage id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
