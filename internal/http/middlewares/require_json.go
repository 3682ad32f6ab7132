package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := c.GetHeader("Content-Type")
			// no header at all is left to the JSON binder, which answers 400
			if ct == "" {
				break
			}

			// allows "application/json; charset=utf-8"
			mt, _, err := mime.ParseMediaType(ct)
			if err != nil || mt != "application/json" {
				abortJSON(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
