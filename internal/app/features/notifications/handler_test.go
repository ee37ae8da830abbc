// internal/app/features/notifications/handler_test.go
package notifications

import (
	"net/http"
	"net/http/httptest"
	"testing"

	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &Handler{Notifications: notifstore.New(db), Log: zap.NewNop()}, testutil.NewFixtures(t, db)
}

func TestListWithUnreadCount(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()

	fx.CreateNotification(ctx, user.ID, models.NotifyPartnerRequest, "request one")
	fx.CreateNotification(ctx, user.ID, models.NotifyGoalDue, "goal due")
	fx.CreateNotification(ctx, testutil.SignedInUser().ID, models.NotifyGoalDue, "someone else's")

	rec := httptest.NewRecorder()
	h.List(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/notifications", nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got listResponse
	testutil.DecodeJSON(t, rec, &got)
	if len(got.Notifications) != 2 {
		t.Errorf("notifications = %d, want 2", len(got.Notifications))
	}
	if got.Unread != 2 {
		t.Errorf("unread = %d, want 2", got.Unread)
	}
}

func TestMarkRead(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()
	n := fx.CreateNotification(ctx, user.ID, models.NotifyPartnerRequest, "request")

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodPost, "/api/notifications/"+n.ID.Hex()+"/read", nil), "id", n.ID.Hex())
	h.MarkRead(rec, testutil.WithUser(req, user))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	unread, err := h.Notifications.CountUnread(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	n := fx.CreateNotification(ctx, testutil.SignedInUser().ID, models.NotifyPartnerRequest, "not yours")

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodPost, "/api/notifications/"+n.ID.Hex()+"/read", nil), "id", n.ID.Hex())
	h.MarkRead(rec, testutil.WithUser(req, testutil.SignedInUser()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMarkAllRead(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)
	user := testutil.SignedInUser()
	fx.CreateNotification(ctx, user.ID, models.NotifyGoalDue, "one")
	fx.CreateNotification(ctx, user.ID, models.NotifyGoalDue, "two")

	rec := httptest.NewRecorder()
	h.MarkAllRead(rec, testutil.WithUser(httptest.NewRequest(http.MethodPost, "/api/notifications/read-all", nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]int64
	testutil.DecodeJSON(t, rec, &got)
	if got["marked"] != 2 {
		t.Errorf("marked = %d, want 2", got["marked"])
	}
}
