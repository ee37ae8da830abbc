package goals_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)

	due := time.Now().UTC().Add(7 * 24 * time.Hour)
	g, err := store.Create(ctx, models.Goal{
		OwnerID:  "user-1",
		Title:    "  Run a 10k  ",
		Category: " Fitness ",
		DueDate:  due,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.Title != "Run a 10k" {
		t.Errorf("title = %q, want trimmed", g.Title)
	}
	if g.Category != "fitness" {
		t.Errorf("category = %q, want lowercased", g.Category)
	}
	if g.Status != models.GoalInProgress {
		t.Errorf("status = %q, want %q", g.Status, models.GoalInProgress)
	}
	if g.ID.IsZero() {
		t.Error("id not assigned")
	}
}

func TestStore_Create_RejectsBadProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)

	_, err := store.Create(ctx, models.Goal{
		OwnerID:  "user-1",
		Title:    "Overflow",
		DueDate:  time.Now().UTC().Add(time.Hour),
		Progress: 120,
	})
	if err == nil {
		t.Fatal("expected error for progress > 100")
	}
}

func TestStore_SetProgress_CompletesAtHundred(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)

	g, err := store.Create(ctx, models.Goal{
		OwnerID: "user-1",
		Title:   "Finish the draft",
		DueDate: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetProgress(ctx, g.ID, "user-1", 100); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.GoalCompleted {
		t.Errorf("status = %q, want %q", got.Status, models.GoalCompleted)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
}

func TestStore_SetProgress_ScopedToOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)

	g, err := store.Create(ctx, models.Goal{
		OwnerID: "user-1",
		Title:   "Private goal",
		DueDate: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetProgress(ctx, g.ID, "intruder", 50); err != mongo.ErrNoDocuments {
		t.Errorf("err = %v, want ErrNoDocuments for wrong owner", err)
	}
}

func TestStore_List_FiltersByOwnerAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	due := time.Now().UTC().Add(24 * time.Hour)
	fx.CreateGoal(ctx, "user-1", "Alpha", models.GoalInProgress, due)
	fx.CreateGoal(ctx, "user-1", "Beta", models.GoalCompleted, due)
	fx.CreateGoal(ctx, "user-2", "Gamma", models.GoalInProgress, due)

	goals, _, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1"}, "", "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("len = %d, want 2", len(goals))
	}

	goals, _, err = store.List(ctx, goalstore.ListFilter{OwnerID: "user-1", Status: models.GoalCompleted}, "", "", 10)
	if err != nil {
		t.Fatalf("List with status failed: %v", err)
	}
	if len(goals) != 1 || goals[0].Title != "Beta" {
		t.Errorf("goals = %+v, want only Beta", goals)
	}
}

func TestStore_List_SearchesByTitlePrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	due := time.Now().UTC().Add(24 * time.Hour)
	fx.CreateGoal(ctx, "user-1", "Read Middlemarch", models.GoalInProgress, due)
	fx.CreateGoal(ctx, "user-1", "Read War and Peace", models.GoalInProgress, due)
	fx.CreateGoal(ctx, "user-1", "Run a 10k", models.GoalInProgress, due)

	goals, _, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1", Search: "REA"}, "", "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("len = %d, want 2", len(goals))
	}
	for _, g := range goals {
		if g.Title == "Run a 10k" {
			t.Errorf("search matched %q", g.Title)
		}
	}

	// Search composes with a cursor: page through the matches.
	first, _, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1", Search: "read"}, "", "", 1)
	if err != nil {
		t.Fatalf("List first match failed: %v", err)
	}
	if len(first) != 1 || first[0].Title != "Read Middlemarch" {
		t.Fatalf("first match = %+v, want Read Middlemarch", first)
	}
	_, next := goalstore.Cursors(first)

	rest, _, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1", Search: "read"}, "", next, 10)
	if err != nil {
		t.Fatalf("List after cursor failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Title != "Read War and Peace" {
		t.Errorf("rest = %+v, want only Read War and Peace", rest)
	}
}

func TestStore_List_Pages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	due := time.Now().UTC().Add(24 * time.Hour)
	for _, title := range []string{"Apple", "Banana", "Cherry"} {
		fx.CreateGoal(ctx, "user-1", title, models.GoalInProgress, due)
	}

	first, res, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1"}, "", "", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first page len = %d, want 2", len(first))
	}
	if !res.HasNext {
		t.Fatal("expected a next page")
	}
	_, next := goalstore.Cursors(first)

	second, _, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1"}, "", next, 2)
	if err != nil {
		t.Fatalf("List second page failed: %v", err)
	}
	if len(second) != 1 || second[0].Title != "Cherry" {
		t.Errorf("second page = %+v, want only Cherry", second)
	}
}

func TestStore_UpcomingForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	now := time.Now().UTC()
	fx.CreateGoal(ctx, "user-1", "Later", models.GoalInProgress, now.Add(72*time.Hour))
	fx.CreateGoal(ctx, "user-1", "Soon", models.GoalInProgress, now.Add(24*time.Hour))
	fx.CreateGoal(ctx, "user-1", "Done", models.GoalCompleted, now.Add(12*time.Hour))

	goals, err := store.UpcomingForOwner(ctx, "user-1", 5)
	if err != nil {
		t.Fatalf("UpcomingForOwner failed: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("len = %d, want 2 in-progress goals", len(goals))
	}
	if goals[0].Title != "Soon" || goals[1].Title != "Later" {
		t.Errorf("order = [%s, %s], want due-date ascending", goals[0].Title, goals[1].Title)
	}
}

func TestStore_MarkMissed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	now := time.Now().UTC()
	fx.CreateGoal(ctx, "user-1", "Overdue", models.GoalInProgress, now.Add(-24*time.Hour))
	fx.CreateGoal(ctx, "user-1", "Future", models.GoalInProgress, now.Add(24*time.Hour))

	n, err := store.MarkMissed(ctx)
	if err != nil {
		t.Fatalf("MarkMissed failed: %v", err)
	}
	if n != 1 {
		t.Errorf("marked = %d, want 1", n)
	}

	goals, _, err := store.List(ctx, goalstore.ListFilter{OwnerID: "user-1", Status: models.GoalMissed}, "", "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(goals) != 1 || goals[0].Title != "Overdue" {
		t.Errorf("missed goals = %+v, want only Overdue", goals)
	}
}

func TestStore_CountByOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := goalstore.New(db)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	due := time.Now().UTC().Add(24 * time.Hour)
	fx.CreateGoal(ctx, "user-1", "One", models.GoalCompleted, due)
	fx.CreateGoal(ctx, "user-1", "Two", models.GoalInProgress, due)
	fx.CreateGoal(ctx, "user-1", "Three", models.GoalMissed, due)

	completed, total, err := store.CountByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountByOwner failed: %v", err)
	}
	if completed != 1 || total != 3 {
		t.Errorf("counts = (%d, %d), want (1, 3)", completed, total)
	}
}
