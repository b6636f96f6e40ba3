package service

import (
	"context"
	"testing"

	"github.com/loanflow/origination/internal/core/domain"
)

func TestNotificationService_Send_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.notifier.Send(ctx, "s", "", "hello", "")
	assertErrorIs(t, err, domain.ErrValidation)
	_, err = f.notifier.Send(ctx, "s", "r", "   ", "")
	assertErrorIs(t, err, domain.ErrValidation)

	n, err := f.notifier.Send(ctx, "s", "r", " hello ", "ABC-123456")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n.Message != "hello" || n.Status != domain.NotificationUnread || n.ReadAt != nil {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestNotificationService_MarkRead_OnlyReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n, _ := f.notifier.Send(ctx, "admin", "carol", "hi", "ABC-123456")

	_, err := f.notifier.MarkRead(ctx, n.ID, "mallory")
	assertErrorIs(t, err, domain.ErrForbidden)
	stored, _ := f.notifs.FindByID(ctx, n.ID)
	if stored.IsRead() {
		t.Fatal("notification must stay unread after a refused MarkRead")
	}

	read, err := f.notifier.MarkRead(ctx, n.ID, "carol")
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !read.IsRead() || read.ReadAt == nil {
		t.Errorf("expected read notification, got %+v", read)
	}
	again, err := f.notifier.MarkRead(ctx, n.ID, "carol")
	if err != nil || !again.ReadAt.Equal(*read.ReadAt) {
		t.Errorf("MarkRead should be idempotent: %v %+v", err, again)
	}

	_, err = f.notifier.MarkRead(ctx, "missing", "carol")
	assertErrorIs(t, err, domain.ErrNotificationNotFound)
}

func TestNotificationService_Open_ReturnsReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n, _ := f.notifier.Send(ctx, "admin", "carol", "hi", "ABC-123456")

	ref, err := f.notifier.Open(ctx, n.ID, "carol")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ref != "ABC-123456" {
		t.Errorf("reference = %q", ref)
	}
	stored, _ := f.notifs.FindByID(ctx, n.ID)
	if !stored.IsRead() {
		t.Error("Open should mark the notification read")
	}
}

func TestNotificationService_List_ScopedToReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range 3 {
		_, _ = f.notifier.Send(ctx, "admin", "carol", "for carol", "")
	}
	_, _ = f.notifier.Send(ctx, "admin", "dave", "for dave", "")

	list, err := f.notifier.List(ctx, "carol", false, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Items) != 2 || list.UnreadCount != 3 {
		t.Fatalf("items=%d unread=%d", len(list.Items), list.UnreadCount)
	}
	for _, n := range list.Items {
		if n.ReceiverID != "carol" {
			t.Fatalf("leaked notification %+v", n)
		}
	}

	changed, err := f.notifier.MarkAllRead(ctx, "carol")
	if err != nil || changed != 3 {
		t.Fatalf("MarkAllRead = %d, %v", changed, err)
	}
	list, _ = f.notifier.List(ctx, "carol", true, 0)
	if len(list.Items) != 0 || list.UnreadCount != 0 {
		t.Errorf("expected nothing unread, got %d", list.UnreadCount)
	}
	dave, _ := f.notifier.List(ctx, "dave", true, 0)
	if dave.UnreadCount != 1 {
		t.Error("MarkAllRead must not touch other receivers")
	}
}

func TestNotificationService_List_ClampsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range defaultInboxLimit + 5 {
		_, _ = f.notifier.Send(ctx, "admin", "carol", "ping", "")
	}

	for _, limit := range []int{-1, 0} {
		list, err := f.notifier.List(ctx, "carol", false, limit)
		if err != nil {
			t.Fatalf("List(%d): %v", limit, err)
		}
		if len(list.Items) != defaultInboxLimit {
			t.Errorf("List(%d) returned %d items, want %d", limit, len(list.Items), defaultInboxLimit)
		}
	}
	list, _ := f.notifier.List(ctx, "carol", false, maxInboxLimit+1)
	if len(list.Items) != defaultInboxLimit+5 {
		t.Errorf("large limit returned %d items", len(list.Items))
	}
}

func TestNotificationService_Delete_OnlyReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n, _ := f.notifier.Send(ctx, "admin", "carol", "hi", "")
	_, _ = f.notifier.Send(ctx, "admin", "dave", "hi", "")

	assertErrorIs(t, f.notifier.Delete(ctx, n.ID, "dave"), domain.ErrForbidden)
	if err := f.notifier.Delete(ctx, n.ID, "carol"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	removed, err := f.notifier.DeleteAll(ctx, "dave")
	if err != nil || removed != 1 {
		t.Fatalf("DeleteAll = %d, %v", removed, err)
	}
	if len(f.store.notifications) != 0 {
		t.Errorf("expected empty store, got %d", len(f.store.notifications))
	}
}
