// internal/domain/models/partnership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Partnership statuses.
const (
	PartnershipPending  = "pending"
	PartnershipActive   = "active"
	PartnershipDeclined = "declined"
)

// Partnership links two users as accountability partners. RequesterID sent
// the request; PartnerID received it. A pair has at most one
// non-declined partnership regardless of direction.
type Partnership struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequesterID string             `bson:"requester_id" json:"requester_id"`
	PartnerID   string             `bson:"partner_id" json:"partner_id"`
	Status      string             `bson:"status" json:"status"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`

	// Next scheduled check-in between the two partners, if any.
	NextCheckIn *time.Time `bson:"next_check_in,omitempty" json:"next_check_in,omitempty"`

	// Set when a reminder for NextCheckIn has been queued; cleared when
	// the check-in is rescheduled.
	ReminderSentAt *time.Time `bson:"reminder_sent_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Counterpart returns the other user's id for the given participant.
func (p Partnership) Counterpart(userID string) string {
	if p.RequesterID == userID {
		return p.PartnerID
	}
	return p.RequesterID
}

// Involves reports whether userID participates in the partnership.
func (p Partnership) Involves(userID string) bool {
	return p.RequesterID == userID || p.PartnerID == userID
}
