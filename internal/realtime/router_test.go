package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
)

func strPtr(s string) *string { return &s }

func ticketEvent(eventType events.EventType, actor events.Actor, payload events.TicketPayload) events.Event {
	return events.Event{
		ID:        "event-1",
		Type:      eventType,
		TicketID:  payload.ID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func TestAudienceForTicketCreated(t *testing.T) {
	event := ticketEvent(events.EventTicketCreated,
		events.Actor{UserID: "customer-1", Role: domain.RoleCustomer},
		events.TicketPayload{ID: "ticket-1", CreatedBy: "customer-1"})

	audience := AudienceFor(event)
	require.ElementsMatch(t, []domain.Role{domain.RoleAdmin, domain.RoleManager}, audience.Roles)
	require.Empty(t, audience.Users)
	require.Empty(t, audience.Tickets)
}

func TestAudienceForTicketUpdated(t *testing.T) {
	event := ticketEvent(events.EventTicketUpdated,
		events.Actor{UserID: "manager-1", Role: domain.RoleManager},
		events.TicketPayload{
			ID:         "ticket-1",
			CreatedBy:  "customer-1",
			AssignedTo: strPtr("agent-1"),
		})

	audience := AudienceFor(event)
	require.ElementsMatch(t, []domain.Role{domain.RoleAdmin, domain.RoleManager}, audience.Roles)
	require.ElementsMatch(t, []string{"agent-1", "customer-1"}, audience.Users)
	require.Equal(t, []string{"ticket-1"}, audience.Tickets)
}

func TestAudienceForTicketUpdatedByCreator(t *testing.T) {
	event := ticketEvent(events.EventTicketUpdated,
		events.Actor{UserID: "customer-1", Role: domain.RoleCustomer},
		events.TicketPayload{ID: "ticket-1", CreatedBy: "customer-1"})

	// The creator caused the change; no point echoing it back by user room.
	audience := AudienceFor(event)
	require.Empty(t, audience.Users)
}

func TestAudienceForTicketAssigned(t *testing.T) {
	event := ticketEvent(events.EventTicketAssigned,
		events.Actor{UserID: "manager-1", Role: domain.RoleManager},
		events.TicketPayload{
			ID:         "ticket-1",
			CreatedBy:  "customer-1",
			AssignedTo: strPtr("agent-1"),
			AssignedBy: strPtr("manager-1"),
		})

	audience := AudienceFor(event)
	require.ElementsMatch(t, []string{"agent-1", "customer-1"}, audience.Users)
}

func TestAudienceForTicketRejected(t *testing.T) {
	// After a rejection the assignee is cleared; the assigner and creator
	// still need to hear about it.
	event := ticketEvent(events.EventTicketRejected,
		events.Actor{UserID: "agent-1", Role: domain.RoleAgent},
		events.TicketPayload{
			ID:         "ticket-1",
			CreatedBy:  "customer-1",
			AssignedBy: strPtr("manager-1"),
		})

	audience := AudienceFor(event)
	require.ElementsMatch(t, []string{"customer-1", "manager-1"}, audience.Users)
}

func TestAudienceForPublicComment(t *testing.T) {
	event := events.Event{
		Type:     events.EventCommentAdded,
		TicketID: "ticket-1",
		Payload:  events.CommentPayload{ID: "comment-1", TicketID: "ticket-1"},
	}

	audience := AudienceFor(event)
	require.ElementsMatch(t, []domain.Role{domain.RoleAdmin, domain.RoleManager}, audience.Roles)
	require.Equal(t, []string{"ticket-1"}, audience.Tickets)
	require.Empty(t, audience.ExcludeRoles)
}

func TestAudienceForInternalComment(t *testing.T) {
	event := events.Event{
		Type:     events.EventCommentAdded,
		TicketID: "ticket-1",
		Payload:  events.CommentPayload{ID: "comment-1", TicketID: "ticket-1", Internal: true},
	}

	audience := AudienceFor(event)
	require.Contains(t, audience.Roles, domain.RoleAgent)
	require.Equal(t, []domain.Role{domain.RoleCustomer}, audience.ExcludeRoles)
}

func TestAudienceForPresence(t *testing.T) {
	for _, eventType := range []events.EventType{events.EventUserConnected, events.EventUserOffline} {
		event := events.Event{
			Type:    eventType,
			Actor:   events.Actor{UserID: "customer-1", Role: domain.RoleCustomer},
			Payload: events.PresencePayload{UserID: "customer-1", Role: domain.RoleCustomer},
		}

		// Presence is a staff dashboard concern; other customers never see it.
		audience := AudienceFor(event)
		require.ElementsMatch(t, []domain.Role{domain.RoleAdmin, domain.RoleManager}, audience.Roles)
		require.Empty(t, audience.Users)
		require.Empty(t, audience.Tickets)
	}
}

func TestAudienceForUnknownType(t *testing.T) {
	audience := AudienceFor(events.Event{Type: events.EventType("mystery")})
	require.Empty(t, audience.Roles)
	require.Empty(t, audience.Users)
	require.Empty(t, audience.Tickets)
}

// End to end through the dispatcher: an internal comment reaches staff in the
// ticket room but never the customer, even though the customer joined the room.
func TestRouterInternalCommentNeverReachesCustomer(t *testing.T) {
	hub := NewHub(4)
	dispatcher := events.NewInMemoryDispatcher()
	NewRouter(hub, zap.NewNop()).Attach(dispatcher)

	agentSession := hub.Register("agent-1", domain.RoleAgent)
	customerSession := hub.Register("customer-1", domain.RoleCustomer)
	hub.JoinTicketRoom(agentSession, "ticket-1")
	hub.JoinTicketRoom(customerSession, "ticket-1")

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:       "event-1",
		Type:     events.EventCommentAdded,
		TicketID: "ticket-1",
		Actor:    events.Actor{UserID: "agent-1", Role: domain.RoleAgent},
		Payload:  events.CommentPayload{ID: "comment-1", TicketID: "ticket-1", Internal: true},
	})
	require.NoError(t, err)

	require.Len(t, drain(agentSession), 1)
	require.Empty(t, drain(customerSession))
}

func TestRouterDeliversTicketEvents(t *testing.T) {
	hub := NewHub(4)
	dispatcher := events.NewInMemoryDispatcher()
	NewRouter(hub, zap.NewNop()).Attach(dispatcher)

	adminSession := hub.Register("admin-1", domain.RoleAdmin)
	agentSession := hub.Register("agent-1", domain.RoleAgent)

	err := dispatcher.Publish(context.Background(), ticketEvent(events.EventTicketCreated,
		events.Actor{UserID: "customer-1", Role: domain.RoleCustomer},
		events.TicketPayload{ID: "ticket-1", CreatedBy: "customer-1"}))
	require.NoError(t, err)

	require.Len(t, drain(adminSession), 1)
	require.Empty(t, drain(agentSession), "creation fans out to admins and managers only")
}
