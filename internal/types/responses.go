package types

import (
	"github.com/monocle-dev/taskdeck/internal/models"
)

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type TaskResponse struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Priority      int     `json:"priority"`
	PriorityLabel string  `json:"priority_label"`
	IsComplete    bool    `json:"is_complete"`
	Image         *string `json:"image"`
	ImageURL      string  `json:"image_url,omitempty"`
}

func NewTaskResponse(task models.Task) TaskResponse {
	resp := TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Priority:      int(task.Priority),
		PriorityLabel: task.Priority.String(),
		IsComplete:    task.IsComplete,
		Image:         task.Image,
	}

	if task.Image != nil {
		resp.ImageURL = "/uploads/" + *task.Image
	}

	return resp
}

func NewTaskResponses(tasks []models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		out = append(out, NewTaskResponse(task))
	}

	return out
}
