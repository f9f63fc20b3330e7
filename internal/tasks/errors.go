package tasks

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrNotOwner = errors.New("task belongs to another user")
)

// ValidationError maps form fields to messages. It is returned instead of
// writing anything when task input is rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "invalid task: " + strings.Join(parts, ", ")
}
