// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds.
const (
	NotifyPartnerRequest  = "partner_request"
	NotifyPartnerAccepted = "partner_accepted"
	NotifyCheckInReminder = "checkin_reminder"
	NotifyGoalDue         = "goal_due"
)

// Notification is a per-user feed entry.
type Notification struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  string             `bson:"user_id" json:"user_id"`
	Kind    string             `bson:"kind" json:"kind"`
	Message string             `bson:"message" json:"message"`
	// ActorID is the user that triggered the notification, if any.
	ActorID string `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Read    bool   `bson:"read" json:"read"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
