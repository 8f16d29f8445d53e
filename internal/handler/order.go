package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
	"surplus-saver-api/pkg/apierror"
	"surplus-saver-api/pkg/response"
)

// OrderHandler handles the customer side of the order lifecycle.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// PlaceOrderRequest represents the request body for adding a bag to the
// customer's open order.
type PlaceOrderRequest struct {
	SurpriseBagID int64 `json:"surprise_bag_id"`
	Quantity      int64 `json:"quantity"`
}

// Place handles POST /orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.SurpriseBagID <= 0 {
		response.Error(w, apierror.BadRequest("surprise_bag_id is required"))
		return
	}

	order, err := h.orders.Place(r.Context(), data.UserID, req.SurpriseBagID, req.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, order)
}

// List handles GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	orders, err := h.orders.ListForCustomer(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, orders)
}

// Get handles GET /orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), data.UserID, orderID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, order)
}

// Confirm handles POST /orders/{id}/confirm
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Confirm)
}

// Cancel handles POST /orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Cancel)
}

// Complete handles POST /orders/{id}/complete
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Complete)
}

// Refund handles POST /orders/{id}/refund
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Refund)
}

type transitionFunc = func(ctx context.Context, customerID, orderID int64) (model.Order, error)

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	data := middleware.GetTokenData(r.Context())

	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := fn(r.Context(), data.UserID, orderID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, order)
}
