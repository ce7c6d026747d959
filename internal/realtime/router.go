package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
)

var staffRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager}

// Router maps domain events to audiences and hands them to the hub. It is
// the single place the audience rules live.
type Router struct {
	hub    *Hub
	logger *zap.Logger
}

// NewRouter creates a router bound to a hub.
func NewRouter(hub *Hub, logger *zap.Logger) *Router {
	return &Router{hub: hub, logger: logger}
}

// Attach subscribes the router to every event the dispatcher carries.
func (r *Router) Attach(dispatcher events.Dispatcher) {
	dispatcher.SubscribeAll(r.Handle)
}

// Handle resolves the audience for one event and delivers it. Delivery is
// best-effort; an empty audience is not an error.
func (r *Router) Handle(_ context.Context, event events.Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("event encode failed", zap.String("type", string(event.Type)), zap.Error(err))
		return nil
	}
	r.hub.Publish(AudienceFor(event), frame)
	return nil
}

// AudienceFor computes the canonical audience of a domain event.
func AudienceFor(event events.Event) events.Audience {
	switch event.Type {
	case events.EventTicketCreated, events.EventTicketDeleted:
		return events.Audience{Roles: staffRoles}

	case events.EventTicketUpdated:
		audience := events.Audience{
			Roles:   staffRoles,
			Tickets: []string{event.TicketID},
		}
		if payload, ok := event.Payload.(events.TicketPayload); ok {
			if payload.AssignedTo != nil {
				audience.Users = append(audience.Users, *payload.AssignedTo)
			}
			if payload.CreatedBy != event.Actor.UserID {
				audience.Users = append(audience.Users, payload.CreatedBy)
			}
		}
		return audience

	case events.EventTicketAssigned:
		audience := events.Audience{Roles: staffRoles}
		if payload, ok := event.Payload.(events.TicketPayload); ok {
			if payload.AssignedTo != nil {
				audience.Users = append(audience.Users, *payload.AssignedTo)
			}
			audience.Users = append(audience.Users, payload.CreatedBy)
		}
		return audience

	case events.EventTicketAccepted, events.EventTicketRejected:
		audience := events.Audience{Roles: staffRoles}
		if payload, ok := event.Payload.(events.TicketPayload); ok {
			audience.Users = append(audience.Users, payload.CreatedBy)
			if payload.AssignedBy != nil {
				audience.Users = append(audience.Users, *payload.AssignedBy)
			}
		}
		return audience

	case events.EventCommentAdded:
		audience := events.Audience{
			Roles:   staffRoles,
			Tickets: []string{event.TicketID},
		}
		if payload, ok := event.Payload.(events.CommentPayload); ok && payload.Internal {
			// Internal comments are broadcast to the agent role, and customer
			// sessions must never see them, ticket-room membership included.
			audience.Roles = append(audience.Roles, domain.RoleAgent)
			audience.ExcludeRoles = []domain.Role{domain.RoleCustomer}
		}
		return audience

	case events.EventCommentUpdated, events.EventCommentDeleted:
		audience := events.Audience{Tickets: []string{event.TicketID}}
		if payload, ok := event.Payload.(events.CommentPayload); ok && payload.Internal {
			audience.ExcludeRoles = []domain.Role{domain.RoleCustomer}
		}
		return audience

	case events.EventUserConnected, events.EventUserOffline:
		return events.Audience{Roles: staffRoles}
	}

	return events.Audience{}
}
