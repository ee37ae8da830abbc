// internal/domain/models/identity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity statuses.
const (
	IdentityActive   = "active"
	IdentityDisabled = "disabled"
)

// Sign-in providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Identity is the credential gateway's record of an authenticatable
// principal: an email plus a password hash. It carries no application
// profile data; the profile lives in the profiles collection keyed by
// this record's id.
type Identity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash []byte             `bson:"password_hash,omitempty" json:"-"`
	Provider     string             `bson:"provider,omitempty" json:"-"` // "password" | "google"
	Status       string             `bson:"status" json:"-"`             // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}
