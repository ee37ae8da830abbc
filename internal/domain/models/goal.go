// internal/domain/models/goal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal statuses.
const (
	GoalInProgress = "in-progress"
	GoalCompleted  = "completed"
	GoalMissed     = "missed"
)

// ValidGoalStatus reports whether s is one of the recognized statuses.
func ValidGoalStatus(s string) bool {
	return s == GoalInProgress || s == GoalCompleted || s == GoalMissed
}

// Goal is a user's tracked goal.
type Goal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     string             `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	DueDate     time.Time          `bson:"due_date" json:"due_date"`
	Progress    int                `bson:"progress" json:"progress"` // 0-100
	Status      string             `bson:"status" json:"status"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	// Set when a due-soon reminder has been queued; cleared on edit so
	// a rescheduled goal reminds again.
	DueNotifiedAt *time.Time `bson:"due_notified_at,omitempty" json:"-"`
}
