package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "inpatient-room-catalog/pkg/errors"
)

// SuccessResponse sends a standard success JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// CreatedResponse sends a success JSON response with 201 status
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// ErrorResponse sends a standard error JSON response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}

// MessageResponse sends a simple message response
func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

// ErrorFromApp sends err with the status matching its AppError type.
// Untyped errors are reported as 500 without their message.
func ErrorFromApp(c *gin.Context, err error) {
	status := StatusFor(err)
	message := "Internal server error"
	if status != http.StatusInternalServerError {
		message = err.Error()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	}
	ErrorResponse(c, status, message)
}

// StatusFor maps an error to its HTTP status code
func StatusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
