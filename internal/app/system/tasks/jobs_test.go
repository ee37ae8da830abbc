// internal/app/system/tasks/jobs_test.go
package tasks_test

import (
	"testing"
	"time"

	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	"github.com/dalemusser/accord/internal/app/store/notifications"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	"github.com/dalemusser/accord/internal/app/system/tasks"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
	"go.uber.org/zap"
)

func TestGoalSweepJob_RemindsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	goals := goalstore.New(db)
	notifs := notifications.New(db)

	g := fx.CreateGoal(ctx, "user-1", "Finish draft", models.GoalInProgress,
		time.Now().UTC().Add(2*time.Hour))

	job := tasks.GoalSweepJob(goals, notifs, zap.NewNop())
	for i := 0; i < 2; i++ {
		if err := job.Run(ctx); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	got, err := notifs.ListForUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1 after two sweeps", len(got))
	}
	if got[0].Kind != models.NotifyGoalDue {
		t.Errorf("kind = %q, want %q", got[0].Kind, models.NotifyGoalDue)
	}

	// Editing the goal re-arms the reminder.
	err = goals.Update(ctx, g.ID, "user-1", goalstore.Update{
		Title:    g.Title,
		Category: g.Category,
		DueDate:  time.Now().UTC().Add(3 * time.Hour),
		Progress: g.Progress,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run after edit failed: %v", err)
	}
	got, err = notifs.ListForUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("notifications = %d, want 2 after reschedule", len(got))
	}
}

func TestCheckInReminderJob_RemindsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	partners := partnerstore.New(db)
	notifs := notifications.New(db)

	p := fx.CreatePartnership(ctx, "user-a", "user-b", models.PartnershipActive)
	checkIn := time.Now().UTC().Add(2 * time.Hour)
	if err := partners.SetNextCheckIn(ctx, p.ID, "user-a", checkIn); err != nil {
		t.Fatalf("SetNextCheckIn: %v", err)
	}

	job := tasks.CheckInReminderJob(partners, notifs, zap.NewNop())
	for i := 0; i < 2; i++ {
		if err := job.Run(ctx); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	for _, uid := range []string{"user-a", "user-b"} {
		got, err := notifs.ListForUser(ctx, uid, 10)
		if err != nil {
			t.Fatalf("ListForUser(%s): %v", uid, err)
		}
		if len(got) != 1 {
			t.Errorf("notifications for %s = %d, want 1 after two runs", uid, len(got))
		}
	}

	// Rescheduling the check-in re-arms the reminder.
	if err := partners.SetNextCheckIn(ctx, p.ID, "user-b", checkIn.Add(time.Hour)); err != nil {
		t.Fatalf("SetNextCheckIn again: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run after reschedule failed: %v", err)
	}
	got, err := notifs.ListForUser(ctx, "user-a", 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("notifications = %d, want 2 after reschedule", len(got))
	}
}
