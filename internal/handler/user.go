package handler

import (
	"encoding/json"
	"net/http"

	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
	"surplus-saver-api/pkg/apierror"
	"surplus-saver-api/pkg/response"
)

// UserHandler handles profile, balance and ledger requests for the
// authenticated account.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// DepositRequest represents the request body for a balance top-up.
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// BalanceResponse carries the current balance in minor units.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// Get handles GET /user
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	user, err := h.users.Get(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, user)
}

// Update handles PUT /user
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	var req model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := h.users.UpdateProfile(r.Context(), data.UserID, req)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, user)
}

// Deposit handles POST /user/deposit
func (h *UserHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	balance, err := h.users.Deposit(r.Context(), data.UserID, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, BalanceResponse{Balance: balance})
}

// Balance handles GET /user/balance
func (h *UserHandler) Balance(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	balance, err := h.users.Balance(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, BalanceResponse{Balance: balance})
}

// Ledger handles GET /user/ledger
func (h *UserHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	entries, err := h.users.Ledger(r.Context(), data.UserID)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, entries)
}
