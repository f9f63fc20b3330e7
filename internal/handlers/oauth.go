package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/auth"
	"github.com/monocle-dev/taskdeck/internal/types"
)

var loginFailures = []error{
	auth.ErrTokenExchange,
	auth.ErrNonceMissing,
	auth.ErrStateMismatch,
	auth.ErrInvalidToken,
	auth.ErrMissingEmail,
	auth.ErrUnverifiedEmail,
}

// failureReason keeps provider and driver details out of the flash.
func failureReason(err error) string {
	for _, known := range loginFailures {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "unexpected error"
}

func (h *Handler) OAuthLogin(ctx *gin.Context) {
	if h.Delegated == nil {
		h.flash(ctx, types.FlashDanger, "Google sign-in is not configured")
		h.saveSession(ctx)
		ctx.Redirect(http.StatusFound, loginPath)
		return
	}

	redirectURL := h.Delegated.Begin(h.Sessions.Load(ctx))
	h.saveSession(ctx)

	ctx.Redirect(http.StatusFound, redirectURL)
}

func (h *Handler) OAuthCallback(ctx *gin.Context) {
	if h.Delegated == nil {
		ctx.Redirect(http.StatusFound, loginPath)
		return
	}

	if providerErr := ctx.Query("error"); providerErr != "" {
		h.Sessions.Load(ctx).PopOAuthParams()
		h.flash(ctx, types.FlashDanger, "Login failed: "+providerErr)
		h.saveSession(ctx)
		ctx.Redirect(http.StatusFound, loginPath)
		return
	}

	s := h.Sessions.Load(ctx)

	user, err := h.Delegated.Complete(ctx.Request.Context(), s, ctx.Query("state"), ctx.Query("code"))

	if err != nil {
		log.Printf("OAuth login failed: %v", err)
		h.flash(ctx, types.FlashDanger, "Login failed: "+failureReason(err))
		h.saveSession(ctx)
		ctx.Redirect(http.StatusFound, loginPath)
		return
	}

	if err := h.Sessions.Login(ctx, user); err != nil {
		log.Printf("Failed to start session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Redirect(http.StatusFound, dashboardPath)
}
