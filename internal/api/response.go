// internal/api/response.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"vendor-matching/internal/common/errors"
	"vendor-matching/internal/ledger"
	"vendor-matching/internal/search"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// statusClientClosedRequest is logged when the caller went away first.
const statusClientClosedRequest = 499

// respondAppError maps a domain error onto an HTTP status.
func respondAppError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)
		return
	case stderrors.Is(err, search.ErrSuperseded):
		RespondError(c, http.StatusConflict, string(errors.ErrCodeSearchSuperseded), err)
		return
	case stderrors.Is(err, ledger.ErrNoSelection):
		RespondError(c, http.StatusNotFound, string(errors.ErrCodeSelectionNotFound), err)
		return
	}

	stdErr := errors.Normalize(err)
	c.JSON(statusFor(stdErr.Code), ErrorEnvelope{
		Error: APIError{
			Message: stdErr.Message,
			Code:    string(stdErr.Code),
			Details: stdErr.Details,
		},
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidDemand, errors.ErrCodeInvalidPreferences, errors.ErrCodeInvalidVendorData:
		return http.StatusBadRequest
	case errors.ErrCodeSelectionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSearchSuperseded:
		return http.StatusConflict
	case errors.ErrCodeVendorQueryTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeVendorQueryFailed:
		return http.StatusBadGateway
	case errors.ErrCodeLedgerUnavailable,
		errors.ErrCodeDatabaseConnectionFailed,
		errors.ErrCodeCacheUnavailable,
		errors.ErrCodeBrokerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
