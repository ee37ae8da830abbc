// internal/app/store/stats/store.go

// Package stats persists dashboard counters, keyed by identity hex like
// the profiles collection. Counters are bumped incrementally by goal
// and activity handlers and recomputed wholesale by a background job.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/accord/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateStats is returned when a stats record already exists for
// the identity.
var ErrDuplicateStats = errors.New("a stats record already exists for this account")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("dashboard_stats")}
}

// Insert creates the stats record at registration.
func (s *Store) Insert(ctx context.Context, st models.DashboardStats) error {
	st.UpdatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateStats
		}
		return err
	}
	return nil
}

// GetByID loads stats by identity hex.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.DashboardStats, error) {
	var st models.DashboardStats
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Delete removes a stats record. Returns the number of documents
// deleted.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IncrementGoalsCompleted bumps the completion counter and points.
func (s *Store) IncrementGoalsCompleted(ctx context.Context, id string, points int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{
			"goals_completed": 1,
			"points":          points,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Replace overwrites the whole stats record. Used by the recompute job.
func (s *Store) Replace(ctx context.Context, st models.DashboardStats) error {
	st.UpdatedAt = time.Now().UTC()
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": st.UserID}, st)
	return err
}

// AllIDs returns every identity id with a stats record. The recompute
// job iterates these.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	cur, err := s.c.Find(ctx, bson.M{}, nil)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// Recompute derives a fresh stats record from goal and login history
// counts and stores it.
func (s *Store) Recompute(ctx context.Context, id string, completed, total, streakDays, daysActive int) error {
	st := models.DefaultStats(id)
	st.GoalsCompleted = completed
	st.DaysActive = daysActive
	st.StreakDays = streakDays
	st.Points = completed * models.PointsPerGoal
	st.Level = 1 + st.Points/models.PointsPerLevel
	if total > 0 {
		st.SuccessRate = fmt.Sprintf("%d%%", completed*100/total)
	}
	if err := s.Replace(ctx, st); err != nil {
		return err
	}
	return nil
}
