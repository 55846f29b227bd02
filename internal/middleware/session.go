package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
)

// CheckSingleDeviceLogin validates the JWT's JTI against the active login in
// Redis. A mismatch means an admin reset the login or the record expired;
// the request is rejected so the stale device drops out.
func CheckSingleDeviceLogin(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only candidate tokens are device-locked.
		if claims.Role != model.RoleCandidate {
			c.Next()
			return
		}

		if err := authService.ValidateLoginSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrLoginInvalidated)
			return
		}

		c.Next()
	}
}
