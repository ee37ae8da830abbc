// internal/domain/models/catalog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is a read-only catalog entry browsed from the courses screen.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Category    string             `bson:"category" json:"category"`
	Level       string             `bson:"level,omitempty" json:"level,omitempty"` // beginner | intermediate | advanced
	LessonCount int                `bson:"lesson_count" json:"lesson_count"`
	Duration    string             `bson:"duration,omitempty" json:"duration,omitempty"` // e.g. "2h 45m"
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Lesson belongs to a course; Position orders lessons within it.
type Lesson struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID primitive.ObjectID `bson:"course_id" json:"course_id"`
	Title    string             `bson:"title" json:"title"`
	Duration string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Position int                `bson:"position" json:"position"`
}

// Tip is a short motivational entry with a like counter.
type Tip struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title    string             `bson:"title" json:"title"`
	TitleCI  string             `bson:"title_ci" json:"-"`
	Content  string             `bson:"content" json:"content"`
	Category string             `bson:"category" json:"category"`
	Likes    int                `bson:"likes" json:"likes"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
