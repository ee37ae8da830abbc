// internal/app/store/identities/store.go

// Package identities persists sign-in credentials. Profile data lives
// in the profiles store; this collection holds only what the auth API
// needs to verify a sign-in.
package identities

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/accord/internal/app/system/normalize"
	"github.com/dalemusser/accord/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	errBadProvider    = errors.New(`provider must be "password"|"google"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("by_status"),
		},
	})
	return err
}

// Create inserts a new identity after normalizing fields and hashing
// the password. Password identities must carry a non-empty password;
// Google identities carry none.
func (s *Store) Create(ctx context.Context, email, password, provider string) (models.Identity, error) {
	id := models.Identity{
		ID:       primitive.NewObjectID(),
		Email:    normalize.Email(email),
		Provider: normalize.Provider(provider),
		Status:   models.IdentityActive,
	}

	switch id.Provider {
	case models.ProviderPassword:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.Identity{}, err
		}
		id.PasswordHash = hash
	case models.ProviderGoogle:
		// no local credential
	default:
		return models.Identity{}, errBadProvider
	}

	now := time.Now().UTC()
	id.CreatedAt = now
	id.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, id); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Identity{}, ErrDuplicateEmail
		}
		return models.Identity{}, err
	}
	return id, nil
}

// GetByID loads an identity by ObjectID.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Identity, error) {
	var ident models.Identity
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// GetByEmail looks up an identity by normalized email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var ident models.Identity
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Store) VerifyPassword(ident *models.Identity, password string) bool {
	if len(ident.PasswordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(ident.PasswordHash, []byte(password)) == nil
}

// SetStatus updates an identity's status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if st != models.IdentityActive && st != models.IdentityDisabled {
		return errBadStatus
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetPassword replaces the stored password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// Delete removes an identity. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
