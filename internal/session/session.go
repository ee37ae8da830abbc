// internal/session/session.go

// Package session owns the in-process answer to "is anyone signed in, and
// who". A Manager subscribes to credential-gateway session changes,
// mirrors them into a single observable Session state, and keeps the
// cached profile record in step with the authenticated identity.
//
// The Manager is the only writer of session state; consumers read it via
// Snapshot or Watch and never mutate it directly.
package session

import (
	"context"
	"errors"

	"github.com/dalemusser/accord/internal/domain/models"
)

// Status is the authentication state of the session.
type Status string

const (
	// StatusUnknown holds only during bootstrap, before the first
	// gateway notification has been processed.
	StatusUnknown         Status = "unknown"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Identity is the credential gateway's view of the signed-in principal.
// ID is the provider-issued subject id; the manager never mints or
// rewrites it.
type Identity struct {
	ID    string
	Email string
}

// Change is a session-change notification from the gateway. A nil
// Identity means the session ended (sign-out or expiry); otherwise the
// identity is now authenticated.
type Change struct {
	Identity *Identity
}

// Gateway is the credential service the manager authenticates against.
type Gateway interface {
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)
	// SignUp mints a new identity. It does not by itself establish a
	// session; the manager settles into the authenticated state only
	// after the profile records exist.
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	// Subscribe registers for session-change notifications. Changes are
	// delivered in the order the gateway emits them. The returned func
	// cancels the subscription and closes the channel.
	Subscribe() (<-chan Change, func())
}

// ProfileStore is the record service holding one profile and one
// dashboard-stats record per identity.
type ProfileStore interface {
	// GetProfile returns nil with no error when no record exists yet.
	GetProfile(ctx context.Context, id string) (*models.User, error)
	InsertProfile(ctx context.Context, u models.User) (models.User, error)
	InsertDashboardStats(ctx context.Context, stats models.DashboardStats) error
}

// Snapshot is a point-in-time copy of session state. User is non-nil if
// and only if Status is StatusAuthenticated.
type Snapshot struct {
	Status  Status
	Loading bool
	User    *models.User
}

var (
	// ErrMissingCredentials is returned by Login when email or password
	// is empty. All other credential validation belongs to the gateway.
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrMissingFields is returned by Register when name, email, or
	// password is empty.
	ErrMissingFields = errors.New("name, email, and password are required")
)
