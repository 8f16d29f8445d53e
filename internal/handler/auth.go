package handler

import (
	"encoding/json"
	"net/http"

	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
	"surplus-saver-api/pkg/apierror"
	"surplus-saver-api/pkg/response"
)

// AuthHandler handles registration and token lifecycle requests.
type AuthHandler struct {
	users  *service.UserService
	tokens *service.TokenService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users *service.UserService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Balance  int64  `json:"balance"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account it belongs to.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresIn int        `json:"expires_in"`
	User      model.User `json:"user"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     model.Role(req.Role),
		Balance:  req.Balance,
	})
	if err != nil {
		fail(w, err)
		return
	}

	response.Created(w, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		response.Error(w, apierror.BadRequest("email and password are required"))
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(r.Context(), model.TokenData{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
	})
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, LoginResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
		User:      user,
	})
}

// Revoke handles POST /auth/revoke
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("token required"))
		return
	}

	if err := h.tokens.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"message": "token revoked"})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("token required"))
		return
	}

	if err := h.tokens.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized("invalid or expired token"))
		return
	}

	response.OK(w, map[string]any{
		"message":    "token refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}

func bearerToken(r *http.Request) string {
	if token := r.Header.Get("X-Token"); token != "" {
		return token
	}
	const prefix = "Bearer "
	if auth := r.Header.Get("Authorization"); len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
