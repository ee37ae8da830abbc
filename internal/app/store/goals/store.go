// internal/app/store/goals/store.go

// Package goals persists tracked goals. List queries use keyset
// pagination on (title_ci, _id); the dashboard reads small fixed
// windows sorted by due date.
package goals

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/accord/internal/app/system/normalize"
	"github.com/dalemusser/accord/internal/app/system/paging"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	errBadProgress = errors.New("progress must be between 0 and 100")
	errBadStatus   = errors.New(`status must be "in-progress"|"completed"|"missed"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("goals")}
}

// EnsureIndexes creates list and due-date indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "title_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("owner_title"),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "due_date", Value: 1},
			},
			Options: options.Index().SetName("owner_status_due"),
		},
	})
	return err
}

// Create inserts a goal after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, g models.Goal) (models.Goal, error) {
	g.ID = primitive.NewObjectID()
	g.Title = normalize.Name(g.Title)
	g.TitleCI = text.Fold(g.Title)
	g.Category = normalize.Category(g.Category)
	if g.Status == "" {
		g.Status = models.GoalInProgress
	}
	if !models.ValidGoalStatus(g.Status) {
		return models.Goal{}, errBadStatus
	}
	if g.Progress < 0 || g.Progress > 100 {
		return models.Goal{}, errBadProgress
	}

	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

// GetByID loads a goal. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error) {
	var g models.Goal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	OwnerID  string
	Status   string
	Category string
	Search   string
}

// List returns a page of goals sorted by folded title. before/after are
// opaque cursors from a previous page; size is the page size.
func (s *Store) List(ctx context.Context, filter ListFilter, before, after string, size int) ([]models.Goal, paging.Result, error) {
	cfg := paging.ConfigureKeyset(before, after)

	query := bson.M{"owner_id": filter.OwnerID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = normalize.Category(filter.Category)
	}

	cfg.ApplyWindow(query, "title_ci", filter.Search)

	find := options.Find()
	cfg.ApplyToFind(find, "title_ci", size)

	cur, err := s.c.Find(ctx, query, find)
	if err != nil {
		return nil, paging.Result{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Goal
	if err := cur.All(ctx, &rows); err != nil {
		return nil, paging.Result{}, err
	}

	res := paging.TrimPage(&rows, before, after, size)
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	return rows, res, nil
}

// Cursors builds prev/next cursors for a page returned by List.
func Cursors(rows []models.Goal) (prev, next string) {
	return paging.BuildCursors(rows,
		func(g models.Goal) string { return g.TitleCI },
		func(g models.Goal) primitive.ObjectID { return g.ID })
}

// Update holds editable goal fields.
type Update struct {
	Title       string
	Category    string
	Description string
	DueDate     time.Time
	Progress    int
}

// Update replaces a goal's editable fields, scoped to the owner. A goal
// whose progress reaches 100 flips to completed and stamps CompletedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, ownerID string, upd Update) error {
	if upd.Progress < 0 || upd.Progress > 100 {
		return errBadProgress
	}
	title := normalize.Name(upd.Title)
	now := time.Now().UTC()
	set := bson.M{
		"title":       title,
		"title_ci":    text.Fold(title),
		"category":    normalize.Category(upd.Category),
		"description": upd.Description,
		"due_date":    upd.DueDate.UTC(),
		"progress":    upd.Progress,
		"updated_at":  now,
	}
	if upd.Progress == 100 {
		set["status"] = models.GoalCompleted
		set["completed_at"] = now
	}

	// Edits may move the due date, so the reminder stamp is re-armed.
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": set, "$unset": bson.M{"due_notified_at": ""}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetProgress updates only the progress (and completion state when it
// reaches 100), scoped to the owner.
func (s *Store) SetProgress(ctx context.Context, id primitive.ObjectID, ownerID string, progress int) error {
	if progress < 0 || progress > 100 {
		return errBadProgress
	}
	now := time.Now().UTC()
	set := bson.M{"progress": progress, "updated_at": now}
	if progress == 100 {
		set["status"] = models.GoalCompleted
		set["completed_at"] = now
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "owner_id": ownerID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a goal, scoped to the owner.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UpcomingForOwner returns the owner's in-progress goals soonest-due
// first. The dashboard shows a small window of these.
func (s *Store) UpcomingForOwner(ctx context.Context, ownerID string, limit int64) ([]models.Goal, error) {
	if limit <= 0 {
		limit = 5
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "due_date", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID, "status": models.GoalInProgress}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Goal
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DueSoon returns in-progress goals due within the window that have not
// been reminded yet. The reminder job queues a notification for each
// and stamps them with MarkDueNotified so the next sweep skips them.
func (s *Store) DueSoon(ctx context.Context, within time.Duration) ([]models.Goal, error) {
	now := time.Now().UTC()
	cur, err := s.c.Find(ctx, bson.M{
		"status":          models.GoalInProgress,
		"due_date":        bson.M{"$gte": now, "$lt": now.Add(within)},
		"due_notified_at": bson.M{"$exists": false},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Goal
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkDueNotified stamps goals whose due-soon reminder has been queued.
func (s *Store) MarkDueNotified(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"due_notified_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkMissed flips in-progress goals past their due date to missed.
// Returns the number updated.
func (s *Store) MarkMissed(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.GoalInProgress, "due_date": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.GoalMissed, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountByOwner returns (completed, total) goal counts for an owner.
// The stats recompute job uses these.
func (s *Store) CountByOwner(ctx context.Context, ownerID string) (completed, total int64, err error) {
	total, err = s.c.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, 0, err
	}
	completed, err = s.c.CountDocuments(ctx, bson.M{"owner_id": ownerID, "status": models.GoalCompleted})
	if err != nil {
		return 0, 0, err
	}
	return completed, total, nil
}
