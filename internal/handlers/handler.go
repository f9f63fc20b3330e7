package handlers

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/auth"
	"github.com/monocle-dev/taskdeck/internal/deals"
	"github.com/monocle-dev/taskdeck/internal/realtime"
	"github.com/monocle-dev/taskdeck/internal/session"
	"github.com/monocle-dev/taskdeck/internal/tasks"
	"gorm.io/gorm"
)

const (
	dashboardPath = "/tasks/dashboard"
	loginPath     = "/auth/login"
)

type DealsSource interface {
	FetchTopDeals(ctx context.Context) []deals.Deal
}

// Handler holds the services behind the HTTP routes. Delegated is nil when
// Google sign-in is not configured.
type Handler struct {
	DB        *gorm.DB
	Sessions  *session.Manager
	Local     *auth.LocalService
	Delegated *auth.DelegatedService
	Tasks     *tasks.Service
	Deals     DealsSource
	Hub       *realtime.Hub
}

func (h *Handler) flash(ctx *gin.Context, category, message string) {
	h.Sessions.Load(ctx).AddFlash(category, message)
}

// popFlashes drains pending flashes and persists the emptied session.
func (h *Handler) popFlashes(ctx *gin.Context) []session.Flash {
	s := h.Sessions.Load(ctx)
	flashes := s.PopFlashes()

	if len(flashes) > 0 {
		h.saveSession(ctx)
	}

	return flashes
}

func (h *Handler) saveSession(ctx *gin.Context) {
	if err := h.Sessions.Save(ctx, h.Sessions.Load(ctx)); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
}

func (h *Handler) refresh(userID uint) {
	if h.Hub != nil {
		h.Hub.BroadcastRefresh(userID)
	}
}
