package middlewares

import "github.com/gin-gonic/gin"

// gin context keys
const (
	CtxRequestID = "request_id"
	ctxAccount   = "auth.account"
)

// abortJSON writes the same envelope as handlers.RespondError.
func abortJSON(c *gin.Context, status int, code, message string) {
	reqID := c.GetString(CtxRequestID)

	c.AbortWithStatusJSON(status, gin.H{
		"message": message,
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": reqID,
		},
	})
}
