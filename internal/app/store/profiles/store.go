// internal/app/store/profiles/store.go

// Package profiles persists application profiles, keyed one-to-one by
// identity id. Records are created once at registration; the id is the
// identity's ObjectID hex and never changes.
package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/accord/internal/app/system/normalize"
	"github.com/dalemusser/accord/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateProfile is returned when a profile already exists for the
// identity.
var ErrDuplicateProfile = errors.New("a profile already exists for this account")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// EnsureIndexes creates the name search index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("by_name_ci"),
		},
	})
	return err
}

// Insert creates a profile. The id must be set to the identity hex by
// the caller; inserting twice for the same identity returns
// ErrDuplicateProfile.
func (s *Store) Insert(ctx context.Context, u models.User) (models.User, error) {
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Interests = normalize.Interests(u.Interests)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateProfile
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a profile by identity hex.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update holds the profile fields a user may edit.
type Update struct {
	Name      string
	Bio       string
	Interests []string
	AvatarURL string
}

// Update replaces the editable fields of a profile.
func (s *Store) Update(ctx context.Context, id string, upd Update) error {
	name := normalize.Name(upd.Name)
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"bio":        upd.Bio,
		"interests":  normalize.Interests(upd.Interests),
		"avatar_url": upd.AvatarURL,
		"updated_at": time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a profile. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SearchByName returns profiles whose folded name has the given prefix,
// for the partner picker. Excludes the searching user.
func (s *Store) SearchByName(ctx context.Context, prefix, excludeID string, limit int64) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{
		"_id": bson.M{"$ne": excludeID},
	}
	if p := text.Fold(prefix); p != "" {
		filter["name_ci"] = bson.M{"$gte": p, "$lt": p + "￿"}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetMany loads profiles for a set of identity ids. Missing ids are
// simply absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	if len(ids) == 0 {
		return map[string]models.User{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]models.User, len(ids))
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}
