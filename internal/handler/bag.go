package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
	"surplus-saver-api/pkg/apierror"
	"surplus-saver-api/pkg/response"
)

// BagHandler handles the public storefront listing and the store's bag
// management endpoints.
type BagHandler struct {
	bags *service.BagService
}

// NewBagHandler creates a new bag handler.
func NewBagHandler(bags *service.BagService) *BagHandler {
	return &BagHandler{bags: bags}
}

// CreateBagRequest represents the request body for listing a new bag.
type CreateBagRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Contents      string `json:"contents"`
	OriginalPrice int64  `json:"original_price"`
	DiscountPrice int64  `json:"discount_price"`
	Quantity      int64  `json:"quantity"`
	IsActive      *bool  `json:"is_active"`
	ImageURL      string `json:"image_url"`
}

// List handles GET /bags (public).
func (h *BagHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.BagFilter{
		StoreName: q.Get("store"),
		Search:    q.Get("search"),
	}

	if raw := q.Get("price_min"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, apierror.BadRequest("price_min must be an integer"))
			return
		}
		filter.PriceMin = &v
	}
	if raw := q.Get("price_max"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, apierror.BadRequest("price_max must be an integer"))
			return
		}
		filter.PriceMax = &v
	}

	bags, err := h.bags.ListAvailable(r.Context(), filter)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, bags)
}

// Create handles POST /bags (store only).
func (h *BagHandler) Create(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	var req CreateBagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	bag, err := h.bags.Create(r.Context(), data.UserID, service.CreateBagInput{
		Title:         req.Title,
		Description:   req.Description,
		Contents:      req.Contents,
		OriginalPrice: req.OriginalPrice,
		DiscountPrice: req.DiscountPrice,
		Quantity:      req.Quantity,
		IsActive:      isActive,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, bag)
}

// Update handles PUT /bags/{id} (store only).
func (h *BagHandler) Update(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	bagID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.BagUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	bag, err := h.bags.Update(r.Context(), bagID, data.UserID, req)
	if err != nil {
		fail(w, err)
		return
	}
	response.OK(w, bag)
}

// Delete handles DELETE /bags/{id} (store only).
func (h *BagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenData(r.Context())

	bagID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.bags.Delete(r.Context(), bagID, data.UserID); err != nil {
		fail(w, err)
		return
	}
	response.NoContent(w)
}

// pathID parses a numeric chi URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, apierror.BadRequest(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
