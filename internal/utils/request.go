// Package utils reads request-scoped values set by the router and middleware.
package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/middleware"
	"github.com/monocle-dev/taskdeck/internal/types"
)

var (
	ErrNotAuthenticated = errors.New("User not authenticated")
	ErrTaskIDMissing    = errors.New("Task ID not found")
	ErrTaskIDInvalid    = errors.New("Invalid Task ID")
)

// GetCurrentUser returns the identity stored by middleware.RequireIdentity.
func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	user, ok := value.(middleware.AuthenticatedUser)

	if !ok || user.ID == 0 {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	return user, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetTaskID parses the :task_id path parameter.
func GetTaskID(ctx *gin.Context) (uint, error) {
	raw := ctx.Param("task_id")

	if raw == "" {
		return 0, ErrTaskIDMissing
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, ErrTaskIDInvalid
	}

	return uint(id), nil
}
