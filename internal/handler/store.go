package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
	"surplus-saver-api/pkg/response"
)

// StoreHandler handles the store dashboard: own listings, incoming orders,
// stats and background reports.
type StoreHandler struct {
	bags    *service.BagService
	orders  *service.OrderService
	reports *service.ReportService
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(bags *service.BagService, orders *service.OrderService, reports *service.ReportService) *StoreHandler {
	return &StoreHandler{bags: bags, orders: orders, reports: reports}
}

// Bags handles GET /store/bags
func (h *StoreHandler) Bags(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	q := r.URL.Query()
	sort := q.Get("sort")
	if sort == "" {
		sort = model.BagSortNewest
	}

	bags, err := h.bags.ListByStore(r.Context(), data.UserID, q.Get("search"), sort)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, bags)
}

// Orders handles GET /store/orders
func (h *StoreHandler) Orders(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	orders, err := h.orders.ListForStore(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, orders)
}

// Stats handles GET /store/stats
func (h *StoreHandler) Stats(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	stats, err := h.bags.Stats(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, stats)
}

// RequestReport handles POST /store/reports
func (h *StoreHandler) RequestReport(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	report, err := h.reports.Request(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, report)
}

// GetReport handles GET /store/reports/{id}
func (h *StoreHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	report, err := h.reports.Get(r.Context(), chi.URLParam(r, "id"), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, report)
}
