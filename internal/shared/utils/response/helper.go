package response

import (
	"showbook/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error onto its HTTP status and writes the error envelope
func RespondError(c *gin.Context, message string, err error) {
	code := apperrors.HTTPStatus(err)
	_ = c.Error(err)
	RespondJSON(c, "error", code, message, nil, err.Error())
}
