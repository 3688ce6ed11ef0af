package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS opens every endpoint to any origin and short-circuits preflight
// OPTIONS requests with {ok: true}, matching what the web app expects.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			c.Abort()
			return
		}

		c.Next()
	}
}
