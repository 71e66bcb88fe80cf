package controllers

import (
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/pkg/resp"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/gin-gonic/gin"
)

// writeServiceError maps the service error taxonomy to HTTP. Repositories
// already retried transient failures, so a transient error here means the
// retries are exhausted.
func writeServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var rf *services.ReconciliationFault

	switch {
	case errors.As(err, &ve):
		resp.BadRequest(c, ve.Msg)
	case errors.Is(err, services.ErrNotFound):
		resp.NotFound(c, "not found")
	case errors.Is(err, services.ErrForbidden):
		resp.Forbidden(c, "forbidden")
	case errors.Is(err, services.ErrInsufficientFunds):
		resp.BadRequest(c, "insufficient funds")
	case errors.Is(err, services.ErrWalletInactive),
		errors.Is(err, services.ErrCartNotActive),
		errors.Is(err, services.ErrCartEmpty):
		resp.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWalletExists),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrInvalidTransition):
		resp.Conflict(c, err.Error())
	case errors.As(err, &rf):
		resp.ServerError(c, err)
	case repository.IsTransient(err):
		resp.Unavailable(c, "temporarily unavailable, retry later")
	default:
		resp.ServerError(c, err)
	}
}
