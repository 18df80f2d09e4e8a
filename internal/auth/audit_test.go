package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/labregistry/lab-registry/internal/model"
)

type fakePublisher struct {
	calls int
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, _ model.AuditEntry) error {
	f.calls++
	return f.err
}

func TestSinkRecordsActor(t *testing.T) {
	store := &fakeAuditStore{}
	sink := NewSink(store, nil)

	actor := model.User{ID: 3, Email: "ana@lab.test", Role: model.RoleProfessor}
	sink.Record(context.Background(), Event{
		Actor:    &actor,
		Action:   model.ActionLoginSuccess,
		IP:       "10.0.0.1",
		Severity: model.SeverityInfo,
	})

	entries := store.all()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.UserID == nil || *e.UserID != 3 {
		t.Errorf("UserID = %v", e.UserID)
	}
	if e.UserEmail != "ana@lab.test" || e.UserRole != model.RoleProfessor {
		t.Errorf("actor fields = %q/%q", e.UserEmail, e.UserRole)
	}
}

func TestSinkSystemFallback(t *testing.T) {
	store := &fakeAuditStore{}
	sink := NewSink(store, nil)

	sink.Record(context.Background(), Event{
		Action:   model.ActionLoginFailed,
		IP:       "10.0.0.1",
		Severity: model.SeverityWarning,
	})

	entries := store.all()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].UserEmail != "system" {
		t.Errorf("UserEmail = %q, want \"system\"", entries[0].UserEmail)
	}
	if entries[0].UserID != nil {
		t.Errorf("UserID = %v, want nil", entries[0].UserID)
	}
}

func TestSinkSwallowsFailures(t *testing.T) {
	store := &fakeAuditStore{insertErr: errors.New("disk full")}
	pub := &fakePublisher{err: errors.New("broker down")}
	sink := NewSink(store, pub)

	// Must not panic and must not surface either failure.
	sink.Record(context.Background(), Event{
		Action:   model.ActionPasswordChanged,
		Severity: model.SeverityInfo,
	})
	if pub.calls != 1 {
		t.Errorf("publisher calls = %d, want 1 (mirror still attempted)", pub.calls)
	}
}

func TestSinkMirrorsToPublisher(t *testing.T) {
	store := &fakeAuditStore{}
	pub := &fakePublisher{}
	sink := NewSink(store, pub)

	sink.Record(context.Background(), Event{Action: model.ActionLogout, Severity: model.SeverityInfo})
	if pub.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", pub.calls)
	}
	if len(store.all()) != 1 {
		t.Errorf("store entries = %d, want 1", len(store.all()))
	}
}
