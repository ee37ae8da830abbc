package identities_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/accord/internal/app/store/identities"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identities.New(db)
	ctx := testutil.TestContext(t)

	ident, err := store.Create(ctx, "  Ada@Example.COM ", "correct horse", models.ProviderPassword)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ident.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized lowercase", ident.Email)
	}
	if ident.Status != models.IdentityActive {
		t.Errorf("status = %q, want %q", ident.Status, models.IdentityActive)
	}
	if len(ident.PasswordHash) == 0 {
		t.Error("password hash not set")
	}
	if !store.VerifyPassword(&ident, "correct horse") {
		t.Error("VerifyPassword rejected the original password")
	}
	if store.VerifyPassword(&ident, "wrong") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identities.New(db)
	ctx := testutil.TestContext(t)

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	if _, err := store.Create(ctx, "dup@example.com", "password123", models.ProviderPassword); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, "DUP@example.com", "password456", models.ProviderPassword)
	if err != identities.ErrDuplicateEmail {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_Create_GoogleProviderHasNoCredential(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identities.New(db)
	ctx := testutil.TestContext(t)

	ident, err := store.Create(ctx, "g@example.com", "", models.ProviderGoogle)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(ident.PasswordHash) != 0 {
		t.Error("google identity should have no password hash")
	}
	if store.VerifyPassword(&ident, "") {
		t.Error("VerifyPassword must reject identities without a local credential")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identities.New(db)
	ctx := testutil.TestContext(t)

	created, err := store.Create(ctx, "find@example.com", "password123", models.ProviderPassword)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, "find@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("id = %s, want %s", got.ID.Hex(), created.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identities.New(db)
	ctx := testutil.TestContext(t)

	ident, err := store.Create(ctx, "disable@example.com", "password123", models.ProviderPassword)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetStatus(ctx, ident.ID, models.IdentityDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, err := store.GetByID(ctx, ident.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.IdentityDisabled {
		t.Errorf("status = %q, want %q", got.Status, models.IdentityDisabled)
	}
}

func TestStore_SetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identities.New(db)
	ctx := testutil.TestContext(t)

	ident, err := store.Create(ctx, "rotate@example.com", "old password", models.ProviderPassword)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetPassword(ctx, ident.ID, "new password"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	got, err := store.GetByID(ctx, ident.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if store.VerifyPassword(got, "old password") {
		t.Error("old password still accepted after rotation")
	}
	if !store.VerifyPassword(got, "new password") {
		t.Error("new password rejected")
	}
}
