// internal/domain/models/user.go
package models

import "time"

// User is the application-level profile associated one-to-one with an
// identity. ID is the identity provider's subject id (ObjectID hex) and is
// never minted or mutated by profile code.
//
// NOTE:
//   - Aggregate counters live on DashboardStats, keyed by the same id.
//     They are recomputed by background jobs and are read-only here.
type User struct {
	ID        string   `bson:"_id" json:"id"`
	Name      string   `bson:"name" json:"name"`
	NameCI    string   `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email     string   `bson:"email" json:"email"`
	Bio       string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Interests []string `bson:"interests,omitempty" json:"interests,omitempty"`
	AvatarURL string   `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Placeholder reports whether the profile carries only identity-derived
// fields (id and email). Consumers see this transiently between a session
// change and the arrival of the full profile record.
func (u User) Placeholder() bool {
	return u.Name == "" && u.Bio == "" && len(u.Interests) == 0
}
