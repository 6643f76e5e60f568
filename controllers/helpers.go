package controllers

import "github.com/gin-gonic/gin"

// userIDFromCtx pulls the authenticated user id set by the auth
// middleware; ok=false means the middleware did not run.
func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, true
	case int:
		return uint(id), true
	case int64:
		return uint(id), true
	default:
		return 0, false
	}
}
