package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/models"
	"github.com/monocle-dev/taskdeck/internal/tasks"
	"github.com/monocle-dev/taskdeck/internal/types"
	"github.com/monocle-dev/taskdeck/internal/uploads"
	"github.com/monocle-dev/taskdeck/internal/utils"
)

type TaskRequest struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Priority    string `form:"priority" json:"priority"`
}

// input maps the form onto service input. A non-numeric priority becomes
// zero, which the service rejects.
func (r TaskRequest) input() tasks.Input {
	priority, _ := strconv.Atoi(strings.TrimSpace(r.Priority))

	return tasks.Input{
		Title:       r.Title,
		Description: r.Description,
		Priority:    models.Priority(priority),
	}
}

// attachment returns the uploaded image, or nil when none was sent.
func attachment(ctx *gin.Context) (*uploads.Attachment, io.Closer, error) {
	fh, err := ctx.FormFile("image")

	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}

	if err != nil {
		return nil, nil, err
	}

	if fh.Filename == "" {
		return nil, nil, nil
	}

	return uploads.FromMultipart(fh)
}

func (h *Handler) TasksIndex(ctx *gin.Context) {
	ctx.Redirect(http.StatusFound, dashboardPath)
}

func (h *Handler) Dashboard(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	list, err := h.Tasks.ListFor(ctx.Request.Context(), userID)

	if err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, _ := utils.GetCurrentUser(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"user":    types.UserResponse{ID: user.ID, Username: user.Username},
		"tasks":   types.NewTaskResponses(list),
		"deals":   h.Deals.FetchTopDeals(ctx.Request.Context()),
		"flashes": h.popFlashes(ctx),
	})
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body TaskRequest

	if err := ctx.ShouldBind(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	file, closer, err := attachment(ctx)

	if err != nil {
		log.Printf("Failed to read upload: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}

	if closer != nil {
		defer closer.Close()
	}

	task, warnings, err := h.Tasks.Create(ctx.Request.Context(), userID, body.input(), file)

	if err != nil {
		h.taskError(ctx, err)
		return
	}

	log.Printf("User %d created task %d", userID, task.ID)

	h.afterWrite(ctx, userID, warnings)
}

func (h *Handler) EditTaskPage(ctx *gin.Context) {
	userID, taskID, ok := h.taskParams(ctx)

	if !ok {
		return
	}

	task, err := h.Tasks.Get(ctx.Request.Context(), taskID, userID)

	if err != nil {
		h.taskError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"task":    types.NewTaskResponse(*task),
		"flashes": h.popFlashes(ctx),
	})
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	userID, taskID, ok := h.taskParams(ctx)

	if !ok {
		return
	}

	var body TaskRequest

	if err := ctx.ShouldBind(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	file, closer, err := attachment(ctx)

	if err != nil {
		log.Printf("Failed to read upload: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}

	if closer != nil {
		defer closer.Close()
	}

	_, warnings, err := h.Tasks.Update(ctx.Request.Context(), taskID, userID, body.input(), file)

	if err != nil {
		h.taskError(ctx, err)
		return
	}

	h.afterWrite(ctx, userID, warnings)
}

func (h *Handler) ToggleComplete(ctx *gin.Context) {
	userID, taskID, ok := h.taskParams(ctx)

	if !ok {
		return
	}

	if _, err := h.Tasks.ToggleComplete(ctx.Request.Context(), taskID, userID); err != nil {
		h.taskError(ctx, err)
		return
	}

	h.afterWrite(ctx, userID, nil)
}

func (h *Handler) TasksSocket(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	h.Hub.Serve(ctx, userID)
}

func (h *Handler) afterWrite(ctx *gin.Context, userID uint, warnings []string) {
	for _, w := range warnings {
		h.flash(ctx, types.FlashWarning, "Attachment not saved: "+w)
	}

	if len(warnings) > 0 {
		h.saveSession(ctx)
	}

	h.refresh(userID)

	ctx.Redirect(http.StatusSeeOther, dashboardPath)
}

func (h *Handler) taskParams(ctx *gin.Context) (uint, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, 0, false
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, 0, false
	}

	return userID, taskID, true
}

func (h *Handler) taskError(ctx *gin.Context, err error) {
	var verr *tasks.ValidationError

	switch {
	case errors.As(err, &verr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task", "fields": verr.Fields})
	case errors.Is(err, tasks.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, tasks.ErrNotOwner):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this task"})
	default:
		log.Printf("Task operation failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
