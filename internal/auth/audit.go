package auth

import (
	"context"
	"log"

	"github.com/labregistry/lab-registry/internal/model"
)

// Publisher mirrors recorded audit entries to a side channel (the message
// broker). Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e model.AuditEntry) error
}

// Event is one security-relevant fact handed to the sink. Actor fields may
// be zero when the action was not user-attributed; the sink substitutes the
// "system" literal for the email in that case.
type Event struct {
	Actor       *model.User
	Action      string
	EntityType  string
	EntityID    *uint64
	BeforeState string
	AfterState  string
	IP          string
	Severity    model.Severity
	Metadata    string
}

// Sink appends audit entries best-effort. Persistence and mirror failures
// are logged to the process log and swallowed: the sink is never allowed to
// fail the operation it observes, which is why Record returns nothing.
type Sink struct {
	Store     AuditStore
	Publisher Publisher // optional
}

// NewSink wires a sink. publisher may be nil.
func NewSink(store AuditStore, publisher Publisher) *Sink {
	if store == nil {
		panic("nil store passed to NewSink")
	}
	return &Sink{Store: store, Publisher: publisher}
}

// Record appends one entry built from ev.
func (s *Sink) Record(ctx context.Context, ev Event) {
	e := model.AuditEntry{
		UserEmail:   "system",
		Action:      ev.Action,
		EntityType:  ev.EntityType,
		EntityID:    ev.EntityID,
		BeforeState: ev.BeforeState,
		AfterState:  ev.AfterState,
		IP:          ev.IP,
		Severity:    ev.Severity,
		Metadata:    ev.Metadata,
	}
	if ev.Actor != nil {
		id := ev.Actor.ID
		e.UserID = &id
		e.UserEmail = ev.Actor.Email
		e.UserRole = ev.Actor.Role
	}
	if err := s.Store.Insert(ctx, e); err != nil {
		log.Printf("audit: insert failed (action=%s): %v", e.Action, err)
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, e); err != nil {
			log.Printf("audit: mirror publish failed (action=%s): %v", e.Action, err)
		}
	}
}
