package handler

import (
	"net/http"

	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"

	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: code, Message: message})
}

// errorStatus maps a domain error to the HTTP status and machine code of
// the error envelope.
func errorStatus(err error) (int, string) {
	var remote *apperrors.RemoteError
	switch {
	case apperrors.As(err, &remote):
		return http.StatusBadGateway, "remote_error"
	case apperrors.Is(err, apperrors.ErrAuthentication):
		return http.StatusUnauthorized, "unauthorized"
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case apperrors.Is(err, apperrors.ErrCouponNotFound):
		return http.StatusNotFound, "coupon_not_found"
	case apperrors.Is(err, apperrors.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case apperrors.Is(err, apperrors.ErrMappingNotFound):
		return http.StatusNotFound, "mapping_not_found"
	case apperrors.Is(err, apperrors.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found"
	case apperrors.Is(err, apperrors.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured"
	case apperrors.Is(err, apperrors.ErrRemoteUnavailable):
		return http.StatusBadGateway, "remote_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes the envelope for err. Internal errors never leak
// their text to the caller.
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	abortWithError(c, status, code, message)
}
