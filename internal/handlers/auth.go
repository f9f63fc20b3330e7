package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/auth"
	"github.com/monocle-dev/taskdeck/internal/types"
)

type CredentialsRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (h *Handler) Index(ctx *gin.Context) {
	user, err := h.Sessions.CurrentIdentity(ctx)

	if err != nil {
		log.Printf("Failed to resolve session identity: %v", err)
	}

	if user != nil {
		ctx.Redirect(http.StatusFound, dashboardPath)
		return
	}

	ctx.Redirect(http.StatusFound, loginPath)
}

func (h *Handler) LoginPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"flashes":       h.popFlashes(ctx),
		"oauth_enabled": h.Delegated != nil,
	})
}

func (h *Handler) Login(ctx *gin.Context) {
	var body CredentialsRequest

	if err := ctx.ShouldBind(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Username = strings.TrimSpace(body.Username)

	if body.Username == "" || body.Password == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := h.Local.Authenticate(ctx.Request.Context(), body.Username, body.Password)

	if errors.Is(err, auth.ErrInvalidCredentials) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if err != nil {
		log.Printf("Failed to authenticate user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.Sessions.Login(ctx, user); err != nil {
		log.Printf("Failed to start session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Redirect(http.StatusSeeOther, dashboardPath)
}

func (h *Handler) RegisterPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"flashes": h.popFlashes(ctx)})
}

func (h *Handler) Register(ctx *gin.Context) {
	var body CredentialsRequest

	if err := ctx.ShouldBind(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Local.Register(ctx.Request.Context(), strings.TrimSpace(body.Username), body.Password)

	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Username not available, please choose another one"})
		return
	case err != nil:
		log.Printf("Failed to register user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Printf("Registered user %s", user.Username)

	h.flash(ctx, types.FlashSuccess, "Registration successful! Please log in.")
	h.saveSession(ctx)

	ctx.Redirect(http.StatusSeeOther, loginPath)
}

func (h *Handler) Logout(ctx *gin.Context) {
	if err := h.Sessions.Logout(ctx); err != nil {
		log.Printf("Failed to clear session: %v", err)
	}

	ctx.Redirect(http.StatusFound, loginPath)
}
