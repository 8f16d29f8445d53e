package handler

import (
	"errors"
	"log"
	"net/http"

	"surplus-saver-api/internal/model"
	"surplus-saver-api/pkg/apierror"
	"surplus-saver-api/pkg/response"
)

// fail maps domain errors to the structured API error envelope. Unknown
// errors are logged and surface as a 500 without leaking details.
func fail(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		response.Error(w, apiErr)
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		response.Error(w, apierror.NotFound(""))
	case errors.Is(err, model.ErrForbidden):
		response.Error(w, apierror.Forbidden(""))
	case errors.Is(err, model.ErrInvalidArgument):
		response.Error(w, apierror.BadRequest(err.Error()))
	case errors.Is(err, model.ErrInsufficientFunds):
		response.Error(w, apierror.InsufficientFunds(""))
	case errors.Is(err, model.ErrInsufficientStock):
		response.Error(w, apierror.InsufficientStock(""))
	case errors.Is(err, model.ErrEmailTaken):
		response.Error(w, apierror.Conflict("email is already registered"))
	case errors.Is(err, model.ErrPhoneTaken):
		response.Error(w, apierror.Conflict("phone number is already registered"))
	case errors.Is(err, model.ErrOrderEmpty):
		response.Error(w, apierror.BadRequest("order has no items"))
	case errors.Is(err, model.ErrInvalidCredentials):
		response.Error(w, apierror.Unauthorized("invalid email or password"))
	default:
		log.Printf("[Handler] Unexpected error: %v", err)
		response.Error(w, apierror.InternalError(""))
	}
}
