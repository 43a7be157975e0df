package notifications

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	created []Notification
	admins  []string
	emails  map[string]string
}

func (f *fakeStore) Create(_ context.Context, n Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeStore) UserEmail(_ context.Context, userID string) (string, error) {
	email, ok := f.emails[userID]
	if !ok {
		return "", errors.New("not found")
	}
	return email, nil
}

func (f *fakeStore) List(context.Context, string, bool, int, int) ([]Notification, error) {
	return f.created, nil
}

func (f *fakeStore) UnreadCount(context.Context, string) (int, error) { return len(f.created), nil }

func (f *fakeStore) MarkRead(context.Context, string, string) (bool, error) { return true, nil }

func (f *fakeStore) MarkAllRead(context.Context, string) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeStore) AdminIDs(context.Context, string) ([]string, error) { return f.admins, nil }

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, from, to, subject, body string) error {
	m.sent = append(m.sent, to)
	return m.err
}

func TestNotifySendsEmailWhenAddressKnown(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{}
	svc := New(store, mailer, "")

	if err := svc.Notify(context.Background(), Notification{UserID: "u1", Title: "Vacation approved"}); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored notification, got %d", len(store.created))
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "u1@example.com" {
		t.Fatalf("unexpected mail recipients %v", mailer.sent)
	}
}

func TestNotifyIgnoresMailFailures(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	svc := New(store, &fakeMailer{err: errors.New("smtp down")}, "hr@example.com")
	if err := svc.Notify(context.Background(), Notification{UserID: "u1"}); err != nil {
		t.Fatalf("mail failure should not surface, got %v", err)
	}
}

func TestNotifyAdminsSkipsActor(t *testing.T) {
	store := &fakeStore{admins: []string{"a1", "a2", "actor"}}
	svc := New(store, nil, "")

	svc.NotifyAdmins(context.Background(), "c1", "actor", Notification{Type: TypeVacationSubmitted, Title: "New vacation request"})

	if len(store.created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(store.created))
	}
	for _, n := range store.created {
		if n.UserID == "actor" {
			t.Fatal("actor should not be notified")
		}
		if n.CompanyID != "c1" {
			t.Fatalf("expected company c1, got %q", n.CompanyID)
		}
	}
}
