// Package services holds the owner-scoped use cases behind the HTTP API and
// the CLI: plans, spots and expenses.
//
// Every method reads the caller's auth.Session from the context and refuses
// to run unless a user is resolved. Mutations publish events after the row
// change succeeds; a publish failure is logged and never fails the request.
package services

import (
	"context"

	"tripplan/internal/auth"
	"tripplan/internal/events"
	"tripplan/internal/log"
	"tripplan/internal/metrics"
)

// Deps are shared by every service.
type Deps struct {
	Events  events.Publisher
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

func (d Deps) withDefaults(component string) Deps {
	if d.Events == nil {
		d.Events = events.Discard
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	d.Logger = d.Logger.WithComponent(component)
	return d
}

func (d Deps) publish(ctx context.Context, ev events.Event) {
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Logger.WarnContext(ctx, "Failed to publish event",
			log.FieldEvent, ev.Type,
			log.FieldPlanID, ev.PlanID,
			log.FieldError, err)
		return
	}
	d.Metrics.Event(string(ev.Type), "out")
}

func currentUser(ctx context.Context) (string, error) {
	u, err := auth.FromContext(ctx).RequireUser()
	if err != nil {
		return "", err
	}
	return u.ID, nil
}
