package models

import "gorm.io/gorm"

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "Unknown"
}

type Task struct {
	gorm.Model

	Title       string   `gorm:"size:100;not null"`
	Description string   `gorm:"type:text"`
	Priority    Priority `gorm:"not null;index"`
	IsComplete  bool     `gorm:"default:false"`
	Image       *string  `gorm:"size:100"` // stored attachment filename
	UserID      uint     `gorm:"not null;index"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID uint) bool {
	return t.UserID == userID
}
