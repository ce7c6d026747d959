package events

import (
	"time"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketAccepted EventType = "ticket_accepted"
	EventTicketRejected EventType = "ticket_rejected"
	EventTicketDeleted  EventType = "ticket_deleted"
	EventCommentAdded   EventType = "comment_added"
	EventCommentUpdated EventType = "comment_updated"
	EventCommentDeleted EventType = "comment_deleted"
	EventUserConnected  EventType = "user_connected"
	EventUserOffline    EventType = "user_disconnected"
)

// Audience selects the live sessions an event must reach. Selectors are
// additive; a session matching several selectors still receives the event at
// most once per publish. ExcludeRoles removes matching sessions from the
// resolved set regardless of which selector pulled them in.
type Audience struct {
	Roles        []domain.Role
	Users        []string
	Tickets      []string
	ExcludeRoles []domain.Role
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketPayload carries the ticket snapshot attached to ticket events.
type TicketPayload struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Status           domain.TicketStatus     `json:"status"`
	Priority         domain.TicketPriority   `json:"priority"`
	AcceptanceStatus domain.AcceptanceStatus `json:"acceptance_status"`
	CreatedBy        string                  `json:"created_by"`
	AssignedTo       *string                 `json:"assigned_to,omitempty"`
	AssignedBy       *string                 `json:"assigned_by,omitempty"`
	RejectionReason  *string                 `json:"rejection_reason,omitempty"`
}

// CommentPayload carries the comment snapshot attached to comment events.
type CommentPayload struct {
	ID        string      `json:"id"`
	TicketID  string      `json:"ticket_id"`
	AuthorID  string      `json:"author_id"`
	Role      domain.Role `json:"author_role"`
	Internal  bool        `json:"internal"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// PresencePayload carries identity and role of a connecting or disconnecting
// session.
type PresencePayload struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// NewTicketPayload snapshots a ticket for event payloads.
func NewTicketPayload(t *domain.Ticket) TicketPayload {
	return TicketPayload{
		ID:               t.ID,
		Title:            t.Title,
		Status:           t.Status,
		Priority:         t.Priority,
		AcceptanceStatus: t.AcceptanceStatus,
		CreatedBy:        t.CreatedBy,
		AssignedTo:       t.AssignedTo,
		AssignedBy:       t.AssignedBy,
		RejectionReason:  t.RejectionReason,
	}
}
