package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/middleware"
	"tailor-billing-api/internal/repositories"
	"tailor-billing-api/internal/services"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Error categories returned in ErrorResponse.Error for failures outside payment validation
const (
	CodeInvalidRequest = "InvalidRequestError"
	CodeNotFound       = "NotFoundError"
	CodeDuplicate      = "DuplicateError"
	CodeConflict       = "ConcurrencyError"
	CodeArchiveOff     = "ArchiveDisabledError"
	CodeInternal       = "InternalError"
)

// classifyError maps a service error to its HTTP status and category
func classifyError(err error) (int, string) {
	if code := billing.ErrorCode(err); code != "" {
		if errors.Is(err, billing.ErrBillAlreadyPaid) {
			return http.StatusConflict, code
		}
		return http.StatusBadRequest, code
	}

	switch {
	case errors.Is(err, services.ErrInvalidRequest), repositories.IsValidation(err):
		return http.StatusBadRequest, CodeInvalidRequest
	case repositories.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case repositories.IsDuplicate(err):
		return http.StatusConflict, CodeDuplicate
	case repositories.IsConcurrency(err):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, services.ErrArchiveDisabled):
		return http.StatusNotImplemented, CodeArchiveOff
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// errorMessage returns the message of the innermost categorized error so
// callers see the core message rather than the service's wrapping
func errorMessage(err error) string {
	var validation *billing.ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	var overpayment *billing.OverpaymentError
	if errors.As(err, &overpayment) {
		return overpayment.Error()
	}
	var repoErr *repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Error()
	}
	return err.Error()
}

// respondError writes err as an ErrorResponse. Internal errors are logged and
// their details hidden.
func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)
	message := errorMessage(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "An internal error occurred"
	}

	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

// respondBadRequest writes a 400 for malformed input caught in the handler
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     CodeInvalidRequest,
		Message:   message,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}
