package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	callerIDKey         = "callerID"
)

// AuthMiddleware requires a valid bearer access token and records the
// account id it was issued to in the request context.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			newErrorResponse(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			newErrorResponse(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := h.sessions.VerifyAccessToken(parts[1])
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "invalid access token")
			return
		}

		c.Set(callerIDKey, claims.UserID)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(callerIDKey)
}
