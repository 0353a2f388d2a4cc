package apperrors

import (
	"github.com/gin-gonic/gin"

	"paygate_backend/internal/logger"
)

// ErrorResponse is the standard REST error envelope.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HandleError converts any error into an ErrorResponse and writes it.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "server error", appErr)
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// AsAppError converts err to *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
