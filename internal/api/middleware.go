package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(tokens TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUserID(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorsJSON("authentication credentials were not provided"))
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// AuthOptional attaches the user id when a valid token is present and lets
// anonymous requests through.
func AuthOptional(tokens TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := bearerUserID(c, tokens); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

func bearerUserID(c *gin.Context, tokens TokenManager) (int64, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return 0, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, false
	}
	userID, err := tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return userID, true
}

// currentUserID returns the authenticated user id, or 0 for anonymous
// requests.
func currentUserID(c *gin.Context) int64 {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
