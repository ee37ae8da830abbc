package partnerships_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
)

func TestStore_Request(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	p, err := store.Request(ctx, "alice", "bob", "let's keep each other honest")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if p.Status != models.PartnershipPending {
		t.Errorf("status = %q, want %q", p.Status, models.PartnershipPending)
	}

	// A second request in either direction conflicts while one is open.
	if _, err := store.Request(ctx, "bob", "alice", ""); err != partnerstore.ErrAlreadyLinked {
		t.Errorf("err = %v, want ErrAlreadyLinked", err)
	}
}

func TestStore_Request_RejectsSelf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	if _, err := store.Request(ctx, "alice", "alice", ""); err == nil {
		t.Fatal("expected error for self-partnership")
	}
}

func TestStore_Accept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	p, err := store.Request(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	// Only the receiving side may accept.
	if _, err := store.Accept(ctx, p.ID, "alice"); err != partnerstore.ErrNotPending {
		t.Errorf("requester accept err = %v, want ErrNotPending", err)
	}

	got, err := store.Accept(ctx, p.ID, "bob")
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if got.Status != models.PartnershipActive {
		t.Errorf("status = %q, want %q", got.Status, models.PartnershipActive)
	}

	// Accepting twice is no longer pending.
	if _, err := store.Accept(ctx, p.ID, "bob"); err != partnerstore.ErrNotPending {
		t.Errorf("second accept err = %v, want ErrNotPending", err)
	}
}

func TestStore_Decline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	p, err := store.Request(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := store.Decline(ctx, p.ID, "bob"); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}

	// A declined link does not block a fresh request.
	if _, err := store.Request(ctx, "alice", "bob", "second try"); err != nil {
		t.Errorf("Request after decline failed: %v", err)
	}
}

func TestStore_End(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	p, err := store.Request(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if _, err := store.Accept(ctx, p.ID, "bob"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	// A stranger cannot end it.
	n, err := store.End(ctx, p.ID, "mallory")
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted = %d, want 0 for non-participant", n)
	}

	n, err = store.End(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestStore_SetNextCheckIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	p, err := store.Request(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if _, err := store.Accept(ctx, p.ID, "bob"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	at := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	if err := store.SetNextCheckIn(ctx, p.ID, "alice", at); err != nil {
		t.Fatalf("SetNextCheckIn failed: %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NextCheckIn == nil || !got.NextCheckIn.Equal(at) {
		t.Errorf("NextCheckIn = %v, want %v", got.NextCheckIn, at)
	}

	// A non-participant cannot schedule a check-in.
	if err := store.SetNextCheckIn(ctx, p.ID, "mallory", at); err != mongo.ErrNoDocuments {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := partnerstore.New(db)
	ctx := testutil.TestContext(t)

	p1, err := store.Request(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if _, err := store.Accept(ctx, p1.ID, "bob"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if _, err := store.Request(ctx, "carol", "alice", ""); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if _, err := store.Request(ctx, "carol", "dave", ""); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	all, err := store.ListForUser(ctx, "alice", "")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2 (both directions)", len(all))
	}

	active, err := store.ListForUser(ctx, "alice", models.PartnershipActive)
	if err != nil {
		t.Fatalf("ListForUser with status failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != p1.ID {
		t.Errorf("active = %+v, want only the accepted link", active)
	}
}
