// internal/app/store/partnerships/store.go

// Package partnerships persists accountability-partner links. A pair of
// users has at most one non-declined partnership regardless of which
// side sent the request.
package partnerships

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/accord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyLinked is returned when a pending or active partnership
	// already exists between the two users.
	ErrAlreadyLinked = errors.New("a partnership already exists between these users")
	// ErrNotPending is returned when accepting or declining a request
	// that is not in the pending state.
	ErrNotPending = errors.New("partnership request is not pending")
	errSelfLink   = errors.New("cannot partner with yourself")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("partnerships")}
}

// EnsureIndexes creates participant lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "requester_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("by_requester"),
		},
		{
			Keys: bson.D{
				{Key: "partner_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("by_partner"),
		},
	})
	return err
}

// pairFilter matches a partnership between two users in either direction.
func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"requester_id": a, "partner_id": b},
		bson.M{"requester_id": b, "partner_id": a},
	}}
}

// Request creates a pending partnership from requester to partner.
func (s *Store) Request(ctx context.Context, requesterID, partnerID, message string) (models.Partnership, error) {
	if requesterID == partnerID {
		return models.Partnership{}, errSelfLink
	}

	// Reject if a pending or active link already exists in either direction.
	existing := pairFilter(requesterID, partnerID)
	existing["status"] = bson.M{"$in": bson.A{models.PartnershipPending, models.PartnershipActive}}
	count, err := s.c.CountDocuments(ctx, existing)
	if err != nil {
		return models.Partnership{}, err
	}
	if count > 0 {
		return models.Partnership{}, ErrAlreadyLinked
	}

	now := time.Now().UTC()
	p := models.Partnership{
		ID:          primitive.NewObjectID(),
		RequesterID: requesterID,
		PartnerID:   partnerID,
		Status:      models.PartnershipPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Partnership{}, err
	}
	return p, nil
}

// GetByID loads a partnership. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Partnership, error) {
	var p models.Partnership
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Accept flips a pending request to active. Only the receiving side may
// accept.
func (s *Store) Accept(ctx context.Context, id primitive.ObjectID, partnerID string) (*models.Partnership, error) {
	now := time.Now().UTC()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "partner_id": partnerID, "status": models.PartnershipPending},
		bson.M{"$set": bson.M{"status": models.PartnershipActive, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var p models.Partnership
	if err := res.Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotPending
		}
		return nil, err
	}
	return &p, nil
}

// Decline flips a pending request to declined. Only the receiving side
// may decline.
func (s *Store) Decline(ctx context.Context, id primitive.ObjectID, partnerID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "partner_id": partnerID, "status": models.PartnershipPending},
		bson.M{"$set": bson.M{"status": models.PartnershipDeclined, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// End deletes an active partnership. Either participant may end it.
func (s *Store) End(ctx context.Context, id primitive.ObjectID, userID string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"_id":    id,
		"status": models.PartnershipActive,
		"$or": bson.A{
			bson.M{"requester_id": userID},
			bson.M{"partner_id": userID},
		},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetNextCheckIn schedules the next check-in on an active partnership.
func (s *Store) SetNextCheckIn(ctx context.Context, id primitive.ObjectID, userID string, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": models.PartnershipActive,
			"$or": bson.A{
				bson.M{"requester_id": userID},
				bson.M{"partner_id": userID},
			},
		},
		bson.M{
			// Rescheduling re-arms the reminder.
			"$set":   bson.M{"next_check_in": at.UTC(), "updated_at": time.Now().UTC()},
			"$unset": bson.M{"reminder_sent_at": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListForUser returns partnerships involving the user, optionally
// filtered by status, newest first.
func (s *Store) ListForUser(ctx context.Context, userID, status string) ([]models.Partnership, error) {
	query := bson.M{"$or": bson.A{
		bson.M{"requester_id": userID},
		bson.M{"partner_id": userID},
	}}
	if status != "" {
		query["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Partnership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CheckInsDue returns active partnerships whose next check-in falls
// inside the window and has not been reminded yet. The reminder job
// stamps returned rows with MarkReminded after queueing notifications.
func (s *Store) CheckInsDue(ctx context.Context, within time.Duration) ([]models.Partnership, error) {
	now := time.Now().UTC()
	cur, err := s.c.Find(ctx, bson.M{
		"status":           models.PartnershipActive,
		"next_check_in":    bson.M{"$gte": now, "$lt": now.Add(within)},
		"reminder_sent_at": bson.M{"$exists": false},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Partnership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkReminded stamps partnerships whose check-in reminder has been
// queued.
func (s *Store) MarkReminded(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"reminder_sent_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
