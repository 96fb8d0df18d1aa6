package util

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bridgebot/backend/pkg/logger"
)

// Response is the envelope of every API response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorInfo represents error information in response
type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PaginationResponse represents a paginated response
type PaginationResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// SendSuccess sends a success response
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SendPaginated sends a paginated response
func SendPaginated(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PaginationResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// SendError maps err to its response. Errors that are not an AppError are
// logged and reported as a generic 500.
func SendError(c *gin.Context, err error) {
	appErr := GetAppError(err)
	if appErr == nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
		}).Error("Unhandled error", err)
		writeError(c, http.StatusInternalServerError, &ErrorInfo{
			Code:    ErrCodeInternal,
			Message: "Internal server error",
		})
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError && appErr.Err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
		}).Error(appErr.Message, appErr.Err)
	}

	writeError(c, appErr.StatusCode, &ErrorInfo{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// SendCustomError sends a custom error response
func SendCustomError(c *gin.Context, statusCode int, code, message string) {
	writeError(c, statusCode, &ErrorInfo{Code: code, Message: message})
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details interface{}) {
	writeError(c, http.StatusBadRequest, &ErrorInfo{
		Code:    ErrCodeValidation,
		Message: "Validation failed",
		Details: details,
	})
}

// AbortWithError aborts the request with an error
func AbortWithError(c *gin.Context, err error) {
	SendError(c, err)
	c.Abort()
}

// AbortWithCustomError aborts the request with a custom error
func AbortWithCustomError(c *gin.Context, statusCode int, code, message string) {
	SendCustomError(c, statusCode, code, message)
	c.Abort()
}

func writeError(c *gin.Context, statusCode int, info *ErrorInfo) {
	c.JSON(statusCode, Response{
		Success:   false,
		Error:     info,
		RequestID: c.GetString("request_id"),
	})
}
