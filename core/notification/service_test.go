package notification_test

import (
	"context"
	"testing"

	"github.com/trezcool/ngoma/core/notification"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

const (
	userA = "977cfcb6-8c0e-4cf3-b7b8-4bd01d8700a9"
	userB = "0ed84b03-7e2e-4b23-b28e-4be4759a69c0"
)

func setupNotifSvc(t *testing.T) notification.Service {
	t.Helper()
	return notification.NewService(inmemdb.NewNotificationRepository(inmemdb.Open()))
}

func Test_notificationService_FanOut(t *testing.T) {
	svc := setupNotifSvc(t)
	ctx := context.Background()

	notifs, err := svc.FanOut(ctx, notification.Broadcast{
		UserIDs: []string{userA, userB},
		Title:   "Recital",
		Message: "Dress rehearsal moved to Friday.",
		Meta:    notification.Meta{"batch_id": "b-1"},
	}, notification.TypeBroadcast)
	if err != nil {
		t.Fatalf("FanOut(): %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("notifications = %d, want one per user", len(notifs))
	}
	for _, n := range notifs {
		if n.Read {
			t.Errorf("fanned-out notification starts read")
		}
		if n.Type != notification.TypeBroadcast {
			t.Errorf("Type = %q", n.Type)
		}
	}

	for _, uid := range []string{userA, userB} {
		if n, _ := svc.UnreadCount(ctx, uid); n != 1 {
			t.Errorf("unread(%s) = %d, want 1", uid, n)
		}
	}
}

func Test_notificationService_MarkRead(t *testing.T) {
	svc := setupNotifSvc(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := svc.Create(ctx, notification.NewNotification{
			UserID:  userA,
			Type:    notification.TypeSchedule,
			Title:   "Class",
			Message: "See you tonight.",
		})
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		ids = append(ids, n.ID)
	}

	// marking as another user is a silent no-op, never a leak
	if err := svc.MarkRead(ctx, userB, ids[0]); err != nil {
		t.Fatalf("MarkRead(): %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, userA); n != 3 {
		t.Errorf("unread = %d, want 3", n)
	}

	if err := svc.MarkRead(ctx, userA, ids[0]); err != nil {
		t.Fatalf("MarkRead(): %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, userA); n != 2 {
		t.Errorf("unread = %d, want 2", n)
	}

	if err := svc.MarkAllRead(ctx, userA); err != nil {
		t.Fatalf("MarkAllRead(): %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, userA); n != 0 {
		t.Errorf("unread = %d after mark-all, want 0", n)
	}
}
