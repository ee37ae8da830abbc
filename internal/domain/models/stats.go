// internal/domain/models/stats.go
package models

import "time"

// Scoring constants used when counters are recomputed.
const (
	PointsPerGoal  = 50
	PointsPerLevel = 500
)

// DashboardStats holds the denormalized aggregate counters shown on the
// dashboard, one record per identity. Counters are recomputed by the
// stats job; handlers only read them.
type DashboardStats struct {
	UserID         string    `bson:"_id" json:"user_id"`
	GoalsCompleted int       `bson:"goals_completed" json:"goals_completed"`
	DaysActive     int       `bson:"days_active" json:"days_active"`
	SuccessRate    string    `bson:"success_rate" json:"success_rate"` // "NN%"
	StreakDays     int       `bson:"streak_days" json:"streak_days"`
	Points         int       `bson:"points" json:"points"`
	Level          int       `bson:"level" json:"level"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultStats returns the zeroed aggregate record inserted at
// registration time.
func DefaultStats(userID string) DashboardStats {
	return DashboardStats{
		UserID:      userID,
		SuccessRate: "0%",
		Level:       1,
		UpdatedAt:   time.Now().UTC(),
	}
}
