package handler

import (
	"errors"
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/model"
	"pharmacare/pkg/apperror"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy to HTTP. Validation errors
// become a 422 with field-keyed messages; anything outside the taxonomy is
// reported as a transaction failure.
func respondError(c *gin.Context, err error) {
	if verr, ok := apperror.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, response.Validation(http.StatusUnprocessableEntity, verr.Fields))
		return
	}

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	case errors.Is(err, apperror.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
	case errors.Is(err, apperror.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Transaction failure"))
	}
}

// mustPrincipal returns the authenticated principal or aborts with 401.
func mustPrincipal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
	}
	return principal, ok
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
