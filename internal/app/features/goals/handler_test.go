// internal/app/features/goals/handler_test.go
package goals

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := &Handler{
		Goals: goalstore.New(db),
		Stats: statstore.New(db),
		Log:   zap.NewNop(),
	}
	return h, testutil.NewFixtures(t, db)
}

func TestCreateGoal(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.SignedInUser()
	due := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	rec := httptest.NewRecorder()
	req := testutil.JSONRequest(t, http.MethodPost, "/api/goals", map[string]any{
		"title":    "Run a 5k",
		"category": "Fitness",
		"due_date": due,
	})
	h.Create(rec, testutil.WithUser(req, user))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var got models.Goal
	testutil.DecodeJSON(t, rec, &got)
	if got.OwnerID != user.ID {
		t.Errorf("owner = %q, want %q", got.OwnerID, user.ID)
	}
	if got.Status != models.GoalInProgress {
		t.Errorf("status = %q, want in-progress", got.Status)
	}
	if got.Category != "fitness" {
		t.Errorf("category = %q, want lowercased", got.Category)
	}
}

func TestCreateGoalValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.SignedInUser()
	due := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"due_date": due}},
		{name: "missing due date", body: map[string]any{"title": "x"}},
		{name: "progress out of range", body: map[string]any{"title": "x", "due_date": due, "progress": 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/goals", tt.body), user))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestListGoalsScopedToOwner(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()
	other := testutil.SignedInUser()
	due := time.Now().Add(time.Hour)

	fx.CreateGoal(ctx, user.ID, "Alpha", models.GoalInProgress, due)
	fx.CreateGoal(ctx, user.ID, "Beta", models.GoalCompleted, due)
	fx.CreateGoal(ctx, other.ID, "Gamma", models.GoalInProgress, due)

	rec := httptest.NewRecorder()
	h.List(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/goals", nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got listResponse
	testutil.DecodeJSON(t, rec, &got)
	if len(got.Goals) != 2 {
		t.Fatalf("goals = %d, want 2", len(got.Goals))
	}

	rec = httptest.NewRecorder()
	h.List(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/goals?status=completed", nil), user))
	testutil.DecodeJSON(t, rec, &got)
	if len(got.Goals) != 1 || got.Goals[0].Title != "Beta" {
		t.Errorf("filtered goals = %+v, want just Beta", got.Goals)
	}
}

func TestListGoalsRejectsUnknownStatus(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/goals?status=paused", nil), testutil.SignedInUser()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetGoalOtherOwner(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	g := fx.CreateGoal(ctx, testutil.SignedInUser().ID, "Private", models.GoalInProgress, time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/api/goals/"+g.ID.Hex(), nil), "id", g.ID.Hex())
	h.Get(rec, testutil.WithUser(req, testutil.SignedInUser()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for someone else's goal", rec.Code)
	}
}

func TestSetProgressCompletesGoal(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()
	fx.CreateStats(ctx, user.ID)
	g := fx.CreateGoal(ctx, user.ID, "Finish line", models.GoalInProgress, time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	req := testutil.JSONRequest(t, http.MethodPatch, "/api/goals/"+g.ID.Hex()+"/progress", map[string]int{"progress": 100})
	h.SetProgress(rec, testutil.WithUser(testutil.WithChiURLParam(req, "id", g.ID.Hex()), user))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var got models.Goal
	testutil.DecodeJSON(t, rec, &got)
	if got.Status != models.GoalCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}

	st, err := h.Stats.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.GoalsCompleted != 1 || st.Points != models.PointsPerGoal {
		t.Errorf("stats = %+v, want one completion credited", st)
	}
}

func TestSetProgressDoesNotDoubleCredit(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()
	fx.CreateStats(ctx, user.ID)
	g := fx.CreateGoal(ctx, user.ID, "Done already", models.GoalCompleted, time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	req := testutil.JSONRequest(t, http.MethodPatch, "/api/goals/"+g.ID.Hex()+"/progress", map[string]int{"progress": 100})
	h.SetProgress(rec, testutil.WithUser(testutil.WithChiURLParam(req, "id", g.ID.Hex()), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	st, err := h.Stats.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.GoalsCompleted != 0 {
		t.Errorf("goals_completed = %d, want 0 (already completed)", st.GoalsCompleted)
	}
}

func TestDeleteGoal(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()
	g := fx.CreateGoal(ctx, user.ID, "Temp", models.GoalInProgress, time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/goals/"+g.ID.Hex(), nil), "id", g.ID.Hex())
	h.Delete(rec, testutil.WithUser(req, user))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/goals/"+g.ID.Hex(), nil), "id", g.ID.Hex())
	h.Delete(rec, testutil.WithUser(req, user))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}
