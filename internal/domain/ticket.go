package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is part of the closed enumeration.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is part of the closed enumeration.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory enumerates the fixed set of ticket categories.
type TicketCategory string

const (
	CategoryTechnical      TicketCategory = "TECHNICAL"
	CategoryBilling        TicketCategory = "BILLING"
	CategoryAccount        TicketCategory = "ACCOUNT"
	CategoryFeatureRequest TicketCategory = "FEATURE_REQUEST"
	CategoryOther          TicketCategory = "OTHER"
)

// Valid reports whether the category is part of the closed enumeration.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryAccount, CategoryFeatureRequest, CategoryOther:
		return true
	}
	return false
}

// AcceptanceStatus tracks the assignment sub-state, independent of Status.
type AcceptanceStatus string

const (
	AcceptancePending  AcceptanceStatus = "PENDING"
	AcceptanceAccepted AcceptanceStatus = "ACCEPTED"
	AcceptanceRejected AcceptanceStatus = "REJECTED"
)

// MaxTags bounds the tag list on a ticket.
const MaxTags = 10

// RejectionEntry is one append-only record of an agent rejecting an assignment.
type RejectionEntry struct {
	RejectedBy string    `json:"rejected_by"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

// Ticket is the aggregate for support requests.
//
// The lifecycle timestamps (AssignedAt, AcceptedAt, RejectedAt, ResolvedAt,
// ClosedAt) are set at most once and never rewound; reopening a ticket keeps
// them as an audit trail. RejectionReason is populated only while
// AcceptanceStatus is REJECTED; RejectionHistory keeps every rejection.
type Ticket struct {
	ID               string
	Title            string
	Description      string
	Status           TicketStatus
	Priority         TicketPriority
	Category         TicketCategory
	Tags             []string
	CreatedBy        string
	AssignedTo       *string
	AssignedBy       *string
	AcceptanceStatus AcceptanceStatus
	RejectionReason  *string
	RejectionHistory []RejectionEntry
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AssignedAt       *time.Time
	AcceptedAt       *time.Time
	RejectedAt       *time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
}

// IsAssignedTo reports whether the ticket is currently assigned to the user.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
