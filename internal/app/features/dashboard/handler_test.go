// internal/app/features/dashboard/handler_test.go
package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := &Handler{
		Stats:         statstore.New(db),
		Goals:         goalstore.New(db),
		Logins:        loginstore.New(db),
		Partnerships:  partnerstore.New(db),
		Notifications: notifstore.New(db),
		Log:           zap.NewNop(),
	}
	return h, testutil.NewFixtures(t, db)
}

func get(t *testing.T, h *Handler, user testutil.TestUser) response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Get(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var resp response
	testutil.DecodeJSON(t, rec, &resp)
	return resp
}

func TestDashboardWithoutRecords(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.SignedInUser()

	resp := get(t, h, user)
	if resp.Stats.UserID != user.ID || resp.Stats.Level != 1 {
		t.Errorf("stats = %+v, want defaults for our user", resp.Stats)
	}
	if len(resp.UpcomingGoals) != 0 || resp.Unread != 0 || resp.NextCheckIn != nil {
		t.Errorf("dashboard not empty: %+v", resp)
	}
}

func TestDashboardAggregates(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()

	fx.CreateStats(ctx, user.ID)
	fx.CreateGoal(ctx, user.ID, "Soon", models.GoalInProgress, time.Now().Add(24*time.Hour))
	fx.CreateGoal(ctx, user.ID, "Later", models.GoalInProgress, time.Now().Add(48*time.Hour))
	fx.CreateGoal(ctx, user.ID, "Done", models.GoalCompleted, time.Now().Add(time.Hour))
	fx.CreateNotification(ctx, user.ID, models.NotifyGoalDue, "due soon")

	partner := testutil.SignedInUser()
	p := fx.CreatePartnership(ctx, user.ID, partner.ID, models.PartnershipActive)
	checkIn := time.Now().Add(12 * time.Hour).UTC().Truncate(time.Second)
	if err := h.Partnerships.SetNextCheckIn(ctx, p.ID, user.ID, checkIn); err != nil {
		t.Fatalf("SetNextCheckIn: %v", err)
	}

	resp := get(t, h, user)

	if len(resp.UpcomingGoals) != 2 {
		t.Fatalf("upcoming goals = %d, want 2 in-progress", len(resp.UpcomingGoals))
	}
	if resp.UpcomingGoals[0].Title != "Soon" {
		t.Errorf("first upcoming = %q, want soonest due", resp.UpcomingGoals[0].Title)
	}
	if resp.Unread != 1 {
		t.Errorf("unread = %d, want 1", resp.Unread)
	}
	if resp.NextCheckIn == nil || !resp.NextCheckIn.Equal(checkIn) {
		t.Errorf("next check-in = %v, want %v", resp.NextCheckIn, checkIn)
	}
}
