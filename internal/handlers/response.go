package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondError writes a failure envelope. details is included only when the
// handler set was built outside production mode.
func RespondError(c *gin.Context, status int, message string, err error, includeDetails bool) {
	envelope := ErrorEnvelope{Success: false, Error: message}
	if includeDetails && err != nil {
		envelope.Details = err.Error()
	}
	c.JSON(status, envelope)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
