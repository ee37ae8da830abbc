// internal/app/store/tokens/store.go

// Package tokens tracks issued bearer tokens by jti so sign-out can
// revoke them before they expire. Expired records are reaped by a
// Mongo TTL index with a cleanup job as backup.
package tokens

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one issued bearer token.
type Record struct {
	JTI        string             `bson:"_id"`
	IdentityID primitive.ObjectID `bson:"identity_id"`
	IssuedAt   time.Time          `bson:"issued_at"`
	ExpiresAt  time.Time          `bson:"expires_at"`
	RevokedAt  *time.Time         `bson:"revoked_at,omitempty"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tokens")}
}

// EnsureIndexes creates the TTL index on expires_at and the per-identity
// lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
		{
			Keys:    bson.D{{Key: "identity_id", Value: 1}},
			Options: options.Index().SetName("by_identity"),
		},
	})
	return err
}

// Insert records a newly issued token.
func (s *Store) Insert(ctx context.Context, jti string, identityID primitive.ObjectID, issuedAt, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, Record{
		JTI:        jti,
		IdentityID: identityID,
		IssuedAt:   issuedAt.UTC(),
		ExpiresAt:  expiresAt.UTC(),
	})
	return err
}

// IsLive reports whether a token is present, unexpired, and not revoked.
func (s *Store) IsLive(ctx context.Context, jti string) (bool, error) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{"_id": jti}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.RevokedAt != nil {
		return false, nil
	}
	return rec.ExpiresAt.After(time.Now().UTC()), nil
}

// Revoke marks a token revoked. Revoking an unknown jti is a no-op.
func (s *Store) Revoke(ctx context.Context, jti string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": jti, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": now}})
	return err
}

// RevokeAllForIdentity revokes every live token for an identity. Used
// when an account is disabled. Returns the number revoked.
func (s *Store) RevokeAllForIdentity(ctx context.Context, identityID primitive.ObjectID) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"identity_id": identityID, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CleanupExpired removes expired and revoked records. Backup for the
// TTL index, whose reaper runs on a coarse schedule.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lt": now}},
		bson.M{"revoked_at": bson.M{"$lt": now.Add(-24 * time.Hour)}},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
