// internal/app/store/logins/loginstore.go

// Package loginstore records successful sign-ins. The stats job derives
// days-active and streak counters from these records.
package loginstore

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/accord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// EnsureIndexes creates the per-user history index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("user_history"),
		},
	})
	return err
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom builds a LoginRecord from the HTTP request and inserts it.
// It extracts client IP (X-Forwarded-For → X-Real-IP → RemoteAddr).
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID, provider string) error {
	rec := models.LoginRecord{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		IP:        clientIP(r),
		Provider:  provider,
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// ActiveDays returns the number of distinct UTC days on which the user
// signed in, and the current consecutive-day streak counting back from
// today.
func (s *Store) ActiveDays(ctx context.Context, userID string) (daysActive, streak int, err error) {
	vals, err := s.c.Distinct(ctx, "created_at", bson.M{"user_id": userID})
	if err != nil {
		return 0, 0, err
	}

	days := make(map[string]bool, len(vals))
	for _, v := range vals {
		if t, ok := v.(time.Time); ok {
			days[t.UTC().Format("2006-01-02")] = true
		} else if dt, ok := v.(interface{ Time() time.Time }); ok {
			days[dt.Time().UTC().Format("2006-01-02")] = true
		}
	}

	day := time.Now().UTC()
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return len(days), streak, nil
}

// Recent returns the user's most recent sign-ins, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int64) ([]models.LoginRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.LoginRecord
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func clientIP(r *http.Request) string {
	// Respect common proxy headers first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return strings.TrimSpace(xr)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
