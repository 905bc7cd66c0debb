package web

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// sessionUserKey is the session entry holding the authenticated user id.
const sessionUserKey = "user_id"

// contextUserKey is the per-request context entry set by requireLogin.
const contextUserKey = "user_id"

// requireLogin redirects anonymous requests to the login page and resolves
// the session's user id into the request context for handlers downstream.
func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id := session.Get(sessionUserKey)
		userID, ok := id.(uint)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(contextUserKey, userID)
		c.Next()
	}
}

// currentUserID returns the user id placed in the context by requireLogin.
func currentUserID(c *gin.Context) uint {
	return c.MustGet(contextUserKey).(uint)
}

// noCache keeps responses out of browser caches so a back-button press after
// logout never shows another user's portfolio.
func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Expires", "0")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
