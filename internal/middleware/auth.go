package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/session"
	"github.com/monocle-dev/taskdeck/internal/types"
)

const LoginPath = "/auth/login"

type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// RequireIdentity redirects to the login page unless the session is bound
// to an existing user, whom it stores in the gin context.
func RequireIdentity(sessions *session.Manager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := sessions.CurrentIdentity(ctx)

		if err != nil {
			log.Printf("Failed to resolve session identity: %v", err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if user == nil {
			ctx.Redirect(http.StatusFound, LoginPath)
			ctx.Abort()
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:       user.ID,
			Username: user.Username,
		})
		ctx.Next()
	}
}
