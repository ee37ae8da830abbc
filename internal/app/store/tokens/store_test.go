package tokens_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/testutil"
)

func TestStore_IsLive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokens.New(db)
	ctx := testutil.TestContext(t)

	identityID := primitive.NewObjectID()
	now := time.Now().UTC()

	if err := store.Insert(ctx, "jti-live", identityID, now, now.Add(time.Hour)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, "jti-expired", identityID, now.Add(-2*time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	live, err := store.IsLive(ctx, "jti-live")
	if err != nil || !live {
		t.Errorf("IsLive(jti-live) = (%t, %v), want true", live, err)
	}

	live, err = store.IsLive(ctx, "jti-expired")
	if err != nil || live {
		t.Errorf("IsLive(jti-expired) = (%t, %v), want false", live, err)
	}

	live, err = store.IsLive(ctx, "jti-unknown")
	if err != nil || live {
		t.Errorf("IsLive(jti-unknown) = (%t, %v), want false", live, err)
	}
}

func TestStore_Revoke(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokens.New(db)
	ctx := testutil.TestContext(t)

	now := time.Now().UTC()
	if err := store.Insert(ctx, "jti-1", primitive.NewObjectID(), now, now.Add(time.Hour)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	live, err := store.IsLive(ctx, "jti-1")
	if err != nil || live {
		t.Errorf("IsLive after revoke = (%t, %v), want false", live, err)
	}

	// Revoking an unknown jti is a no-op.
	if err := store.Revoke(ctx, "jti-unknown"); err != nil {
		t.Errorf("Revoke of unknown jti failed: %v", err)
	}
}

func TestStore_RevokeAllForIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokens.New(db)
	ctx := testutil.TestContext(t)

	target := primitive.NewObjectID()
	other := primitive.NewObjectID()
	now := time.Now().UTC()

	for _, jti := range []string{"t-1", "t-2"} {
		if err := store.Insert(ctx, jti, target, now, now.Add(time.Hour)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := store.Insert(ctx, "o-1", other, now, now.Add(time.Hour)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := store.RevokeAllForIdentity(ctx, target)
	if err != nil {
		t.Fatalf("RevokeAllForIdentity failed: %v", err)
	}
	if n != 2 {
		t.Errorf("revoked = %d, want 2", n)
	}
	live, err := store.IsLive(ctx, "o-1")
	if err != nil || !live {
		t.Errorf("other identity's token = (%t, %v), want still live", live, err)
	}
}

func TestStore_CleanupExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokens.New(db)
	ctx := testutil.TestContext(t)

	identityID := primitive.NewObjectID()
	now := time.Now().UTC()

	if err := store.Insert(ctx, "stale", identityID, now.Add(-2*time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, "fresh", identityID, now, now.Add(time.Hour)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned = %d, want 1", n)
	}
	live, err := store.IsLive(ctx, "fresh")
	if err != nil || !live {
		t.Errorf("fresh token = (%t, %v), want still live", live, err)
	}
}
