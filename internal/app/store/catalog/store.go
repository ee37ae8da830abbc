// internal/app/store/catalog/store.go

// Package catalog persists the read-mostly library content: courses
// with their lessons, and tips. Content is seeded out of band; the API
// only reads, except for tip likes.
package catalog

import (
	"context"
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

type Store struct {
	courses *mongo.Collection
	lessons *mongo.Collection
	tips    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		courses: db.Collection("courses"),
		lessons: db.Collection("lessons"),
		tips:    db.Collection("tips"),
	}
}

// EnsureIndexes creates catalog browse indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.courses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "title_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("category_title"),
		},
	}); err != nil {
		return err
	}
	if _, err := s.lessons.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "course_id", Value: 1},
				{Key: "position", Value: 1},
			},
			Options: options.Index().SetName("course_position"),
		},
	}); err != nil {
		return err
	}
	_, err := s.tips.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "title_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("category_title"),
		},
	})
	return err
}

// ListCourses returns a page of courses sorted by folded title,
// optionally filtered by category and title prefix.
func (s *Store) ListCourses(ctx context.Context, category, q, before, after string, size int) ([]models.Course, paging.Result, error) {
	cfg := paging.ConfigureKeyset(before, after)

	query := bson.M{}
	if category != "" {
		query["category"] = normalize.Category(category)
	}
	cfg.ApplyWindow(query, "title_ci", q)

	find := options.Find()
	cfg.ApplyToFind(find, "title_ci", size)

	cur, err := s.courses.Find(ctx, query, find)
	if err != nil {
		return nil, paging.Result{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Course
	if err := cur.All(ctx, &rows); err != nil {
		return nil, paging.Result{}, err
	}

	res := paging.TrimPage(&rows, before, after, size)
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	return rows, res, nil
}

// CourseCursors builds prev/next cursors for a ListCourses page.
func CourseCursors(rows []models.Course) (prev, next string) {
	return paging.BuildCursors(rows,
		func(c models.Course) string { return c.TitleCI },
		func(c models.Course) primitive.ObjectID { return c.ID })
}

// GetCourse loads a course. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetCourse(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	var c models.Course
	if err := s.courses.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LessonsForCourse returns a course's lessons in position order.
func (s *Store) LessonsForCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Lesson, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := s.lessons.Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Lesson
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListTips returns a page of tips sorted by folded title, optionally
// filtered by category and title prefix.
func (s *Store) ListTips(ctx context.Context, category, q, before, after string, size int) ([]models.Tip, paging.Result, error) {
	cfg := paging.ConfigureKeyset(before, after)

	query := bson.M{}
	if category != "" {
		query["category"] = normalize.Category(category)
	}
	cfg.ApplyWindow(query, "title_ci", q)

	find := options.Find()
	cfg.ApplyToFind(find, "title_ci", size)

	cur, err := s.tips.Find(ctx, query, find)
	if err != nil {
		return nil, paging.Result{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Tip
	if err := cur.All(ctx, &rows); err != nil {
		return nil, paging.Result{}, err
	}

	res := paging.TrimPage(&rows, before, after, size)
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	return rows, res, nil
}

// TipCursors builds prev/next cursors for a ListTips page.
func TipCursors(rows []models.Tip) (prev, next string) {
	return paging.BuildCursors(rows,
		func(t models.Tip) string { return t.TitleCI },
		func(t models.Tip) primitive.ObjectID { return t.ID })
}

// LikeTip increments a tip's like counter.
// Returns mongo.ErrNoDocuments for an unknown tip.
func (s *Store) LikeTip(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.tips.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"likes": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SeedCourse inserts a course with its lessons. Used by fixtures and
// content import tooling.
func (s *Store) SeedCourse(ctx context.Context, c models.Course, lessons []models.Lesson) (models.Course, error) {
	c.ID = primitive.NewObjectID()
	c.Title = normalize.Name(c.Title)
	c.TitleCI = text.Fold(c.Title)
	c.Category = normalize.Category(c.Category)
	c.LessonCount = len(lessons)
	c.CreatedAt = time.Now().UTC()

	if _, err := s.courses.InsertOne(ctx, c); err != nil {
		return models.Course{}, err
	}
	for i := range lessons {
		lessons[i].ID = primitive.NewObjectID()
		lessons[i].CourseID = c.ID
		lessons[i].Position = i + 1
	}
	if len(lessons) > 0 {
		docs := make([]any, len(lessons))
		for i, l := range lessons {
			docs[i] = l
		}
		if _, err := s.lessons.InsertMany(ctx, docs); err != nil {
			return models.Course{}, err
		}
	}
	return c, nil
}

// SeedTip inserts a tip.
func (s *Store) SeedTip(ctx context.Context, t models.Tip) (models.Tip, error) {
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	t.TitleCI = text.Fold(t.Title)
	t.Category = normalize.Category(t.Category)
	t.CreatedAt = time.Now().UTC()

	if _, err := s.tips.InsertOne(ctx, t); err != nil {
		return models.Tip{}, err
	}
	return t, nil
}
