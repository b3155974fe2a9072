package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-teranga/internal/service"
)

// respondValidation itemizes every invalid field so the caller can correct
// each one.
func respondValidation(c *gin.Context, verrs service.ValidationErrors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  verrs,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// asValidationErrors unwraps the service's itemized validation error, if any.
func asValidationErrors(err error) (service.ValidationErrors, bool) {
	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
