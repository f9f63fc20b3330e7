// Package tasks implements per-user task management: listing, creation,
// owner-checked edits and completion toggles, and attachment handling.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/monocle-dev/taskdeck/internal/models"
	"github.com/monocle-dev/taskdeck/internal/uploads"
	"gorm.io/gorm"
)

// Input carries the editable task fields.
type Input struct {
	Title       string
	Description string
	Priority    models.Priority
}

func (in Input) validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "Title is required"
	}

	if !in.Priority.Valid() {
		fields["priority"] = "Priority must be one of 1 (Low), 2 (Medium), 3 (High), 4 (Urgent)"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

type Service struct {
	db    *gorm.DB
	files *uploads.Store
}

func NewService(db *gorm.DB, files *uploads.Store) *Service {
	return &Service{db: db, files: files}
}

// ListFor returns the user's tasks, most important first by ascending
// priority value, ties in creation order.
func (s *Service) ListFor(ctx context.Context, userID uint) ([]models.Task, error) {
	var tasks []models.Task

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("priority ASC").
		Order("id ASC").
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// Create stores a new task. A rejected attachment does not stop the task
// from being created; the rejection comes back as a warning.
func (s *Service) Create(ctx context.Context, userID uint, in Input, attachment *uploads.Attachment) (*models.Task, []string, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	var warnings []string

	task := models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    in.Priority,
		UserID:      userID,
	}

	if attachment != nil {
		name, err := s.saveAttachment(attachment)

		if err != nil {
			warnings = append(warnings, err.Error())
		} else {
			task.Image = &name
		}
	}

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		if task.Image != nil {
			s.removeAttachment(*task.Image)
		}
		return nil, warnings, fmt.Errorf("create task: %w", err)
	}

	return &task, warnings, nil
}

// Get loads a task the user owns.
func (s *Service) Get(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	var task models.Task

	err := s.db.WithContext(ctx).First(&task, taskID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}

	if !task.OwnedBy(userID) {
		return nil, ErrNotOwner
	}

	return &task, nil
}

// Update overwrites title, description and priority. An accepted attachment
// replaces the previous one, whose file is removed; a rejected attachment
// leaves the previous image in place and is reported as a warning.
func (s *Service) Update(ctx context.Context, taskID, userID uint, in Input, attachment *uploads.Attachment) (*models.Task, []string, error) {
	task, err := s.Get(ctx, taskID, userID)

	if err != nil {
		return nil, nil, err
	}

	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	var previous *string
	var stored string

	task.Title = strings.TrimSpace(in.Title)
	task.Description = in.Description
	task.Priority = in.Priority

	if attachment != nil {
		name, err := s.saveAttachment(attachment)

		if err != nil {
			warnings = append(warnings, err.Error())
		} else {
			previous = task.Image
			task.Image = &name
			stored = name
		}
	}

	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		if stored != "" && (previous == nil || *previous != stored) {
			s.removeAttachment(stored)
		}
		return nil, warnings, fmt.Errorf("update task: %w", err)
	}

	// Same sanitized name means the file was overwritten in place
	if previous != nil && *previous != *task.Image {
		s.removeAttachment(*previous)
	}

	return task, warnings, nil
}

// ToggleComplete flips the completion flag of a task the user owns.
func (s *Service) ToggleComplete(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	task, err := s.Get(ctx, taskID, userID)

	if err != nil {
		return nil, err
	}

	task.IsComplete = !task.IsComplete

	err = s.db.WithContext(ctx).Model(task).Update("is_complete", task.IsComplete).Error

	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	return task, nil
}

func (s *Service) saveAttachment(attachment *uploads.Attachment) (string, error) {
	if s.files == nil {
		return "", errors.New("attachments are not enabled")
	}

	return s.files.Save(attachment)
}

func (s *Service) removeAttachment(name string) {
	if s.files == nil {
		return
	}

	if err := s.files.Remove(name); err != nil {
		log.Printf("Failed to remove attachment %s: %v", name, err)
	}
}
