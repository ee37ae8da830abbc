// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/accord/internal/app/store/audit"
	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	"github.com/dalemusser/accord/internal/app/store/notifications"
	"github.com/dalemusser/accord/internal/app/store/oauthstate"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenCleanupJob removes expired and stale-revoked token records.
// Backup for the TTL index, whose reaper runs on a coarse schedule.
func TokenCleanupJob(tokenStore *tokens.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "token-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := tokenStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired tokens", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// GoalSweepJob flips overdue goals to missed and queues due-soon
// notifications. Each goal is reminded at most once; editing the goal
// re-arms it.
func GoalSweepJob(goals *goalstore.Store, notifs *notifications.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "goal-sweep",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			missed, err := goals.MarkMissed(ctx)
			if err != nil {
				return err
			}
			if missed > 0 {
				logger.Info("marked overdue goals missed", zap.Int64("count", missed))
			}

			due, err := goals.DueSoon(ctx, 24*time.Hour)
			if err != nil {
				return err
			}
			notified := make([]primitive.ObjectID, 0, len(due))
			for _, g := range due {
				_, err := notifs.Insert(ctx, models.Notification{
					UserID:  g.OwnerID,
					Kind:    models.NotifyGoalDue,
					Message: fmt.Sprintf("%q is due within 24 hours", g.Title),
				})
				if err != nil {
					logger.Warn("failed to queue goal-due notification",
						zap.String("goal_id", g.ID.Hex()),
						zap.Error(err))
					continue
				}
				notified = append(notified, g.ID)
			}
			if _, err := goals.MarkDueNotified(ctx, notified); err != nil {
				return err
			}
			return nil
		},
	}
}

// CheckInReminderJob queues reminders for partner check-ins scheduled
// within the next day. Both sides of the partnership are notified, at
// most once per scheduled check-in.
func CheckInReminderJob(partners *partnerstore.Store, notifs *notifications.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "checkin-reminder",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			due, err := partners.CheckInsDue(ctx, 24*time.Hour)
			if err != nil {
				return err
			}
			reminded := make([]primitive.ObjectID, 0, len(due))
			for _, p := range due {
				queued := true
				for _, uid := range []string{p.RequesterID, p.PartnerID} {
					_, err := notifs.Insert(ctx, models.Notification{
						UserID:  uid,
						Kind:    models.NotifyCheckInReminder,
						Message: "You have a partner check-in within 24 hours",
						ActorID: p.Counterpart(uid),
					})
					if err != nil {
						logger.Warn("failed to queue check-in reminder",
							zap.String("partnership_id", p.ID.Hex()),
							zap.Error(err))
						queued = false
					}
				}
				if queued {
					reminded = append(reminded, p.ID)
				}
			}
			if _, err := partners.MarkReminded(ctx, reminded); err != nil {
				return err
			}
			return nil
		},
	}
}

// RetentionJob prunes old audit events and read notifications.
func RetentionJob(auditStore *audit.Store, notifs *notifications.Store, keep time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "retention",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-keep)

			audits, err := auditStore.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			pruned, err := notifs.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			if audits > 0 || pruned > 0 {
				logger.Info("retention sweep",
					zap.Int64("audit_events", audits),
					zap.Int64("notifications", pruned))
			}
			return nil
		},
	}
}
