// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateIdentity creates an identity with the given email and password.
func (f *Fixtures) CreateIdentity(ctx context.Context, email, password string) models.Identity {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	now := time.Now().UTC()
	ident := models.Identity{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: hash,
		Provider:     models.ProviderPassword,
		Status:       models.IdentityActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("identities").InsertOne(ctx, ident); err != nil {
		f.t.Fatalf("failed to create test identity: %v", err)
	}
	return ident
}

// CreateProfile creates a profile for the given identity hex id.
func (f *Fixtures) CreateProfile(ctx context.Context, id, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        id,
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return u
}

// CreateStats creates the default stats record for an identity hex id.
func (f *Fixtures) CreateStats(ctx context.Context, id string) models.DashboardStats {
	f.t.Helper()

	st := models.DefaultStats(id)
	if _, err := f.db.Collection("dashboard_stats").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test stats: %v", err)
	}
	return st
}

// CreateGoal creates a goal for the given owner.
func (f *Fixtures) CreateGoal(ctx context.Context, ownerID, title, status string, due time.Time) models.Goal {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Goal{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Title:     title,
		TitleCI:   text.Fold(title),
		Category:  "fitness",
		DueDate:   due.UTC(),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if g.Status == models.GoalCompleted {
		g.Progress = 100
		g.CompletedAt = &now
	}
	if _, err := f.db.Collection("goals").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test goal: %v", err)
	}
	return g
}

// CreatePartnership creates a partnership in the given status.
func (f *Fixtures) CreatePartnership(ctx context.Context, requesterID, partnerID, status string) models.Partnership {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Partnership{
		ID:          primitive.NewObjectID(),
		RequesterID: requesterID,
		PartnerID:   partnerID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("partnerships").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test partnership: %v", err)
	}
	return p
}

// CreateCourse creates a catalog course.
func (f *Fixtures) CreateCourse(ctx context.Context, title, category string) models.Course {
	f.t.Helper()

	c := models.Course{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("courses").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return c
}

// CreateTip creates a catalog tip.
func (f *Fixtures) CreateTip(ctx context.Context, title, category string) models.Tip {
	f.t.Helper()

	tip := models.Tip{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Content:   "Test tip content",
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("tips").InsertOne(ctx, tip); err != nil {
		f.t.Fatalf("failed to create test tip: %v", err)
	}
	return tip
}

// CreateNotification creates a notification for the given user.
func (f *Fixtures) CreateNotification(ctx context.Context, userID, kind, message string) models.Notification {
	f.t.Helper()

	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}
