package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(ctx *gin.Context) {
	status, code := "ok", http.StatusOK

	if err := h.pingDB(ctx.Request.Context()); err != nil {
		log.Printf("Health check database ping failed: %v", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status":    status,
		"message":   "Taskdeck is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) pingDB(ctx context.Context) error {
	sqlDB, err := h.DB.DB()

	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
