package dto

import (
	"time"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category"`
	Tags        []string              `json:"tags"`
}

// UpdateTicketRequest payload; nil fields are untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	Category    *domain.TicketCategory `json:"category"`
	Tags        *[]string              `json:"tags"`
	AssignedTo  *string                `json:"assigned_to"`
}

// Change converts the request into the typed change set.
func (r UpdateTicketRequest) Change() domain.TicketChange {
	return domain.TicketChange{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Category:    r.Category,
		Tags:        r.Tags,
		AssignedTo:  r.AssignedTo,
	}
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// RejectTicketRequest payload.
type RejectTicketRequest struct {
	Reason string `json:"reason"`
}

// RejectionEntryResponse is one rejection record.
type RejectionEntryResponse struct {
	RejectedBy string    `json:"rejected_by"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

// TicketResponse is the full ticket shape.
type TicketResponse struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	Status           domain.TicketStatus      `json:"status"`
	Priority         domain.TicketPriority    `json:"priority"`
	Category         domain.TicketCategory    `json:"category"`
	Tags             []string                 `json:"tags"`
	CreatedBy        string                   `json:"created_by"`
	AssignedTo       *string                  `json:"assigned_to"`
	AssignedBy       *string                  `json:"assigned_by"`
	AcceptanceStatus domain.AcceptanceStatus  `json:"acceptance_status"`
	RejectionReason  *string                  `json:"rejection_reason,omitempty"`
	RejectionHistory []RejectionEntryResponse `json:"rejection_history,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	AssignedAt       *time.Time               `json:"assigned_at,omitempty"`
	AcceptedAt       *time.Time               `json:"accepted_at,omitempty"`
	RejectedAt       *time.Time               `json:"rejected_at,omitempty"`
	ResolvedAt       *time.Time               `json:"resolved_at,omitempty"`
	ClosedAt         *time.Time               `json:"closed_at,omitempty"`
}

// TicketListResponse pairs a page of tickets with the total match count.
type TicketListResponse struct {
	Items []TicketResponse `json:"items"`
	Total int64            `json:"total"`
}

// TicketStatsResponse aggregates counts for reporting.
type TicketStatsResponse struct {
	Total                int64                         `json:"total"`
	ByStatus             map[domain.TicketStatus]int64 `json:"by_status"`
	HighPriority         int64                         `json:"high_priority"`
	Urgent               int64                         `json:"urgent"`
	AvgResolutionSeconds float64                       `json:"avg_resolution_seconds"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	history := make([]RejectionEntryResponse, 0, len(t.RejectionHistory))
	for _, entry := range t.RejectionHistory {
		history = append(history, RejectionEntryResponse{
			RejectedBy: entry.RejectedBy,
			Reason:     entry.Reason,
			RejectedAt: entry.RejectedAt,
		})
	}
	return TicketResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           t.Status,
		Priority:         t.Priority,
		Category:         t.Category,
		Tags:             t.Tags,
		CreatedBy:        t.CreatedBy,
		AssignedTo:       t.AssignedTo,
		AssignedBy:       t.AssignedBy,
		AcceptanceStatus: t.AcceptanceStatus,
		RejectionReason:  t.RejectionReason,
		RejectionHistory: history,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		AssignedAt:       t.AssignedAt,
		AcceptedAt:       t.AcceptedAt,
		RejectedAt:       t.RejectedAt,
		ResolvedAt:       t.ResolvedAt,
		ClosedAt:         t.ClosedAt,
	}
}

// NewTicketStatsResponse maps repository aggregates.
func NewTicketStatsResponse(stats *repository.TicketStats) TicketStatsResponse {
	return TicketStatsResponse{
		Total:                stats.Total,
		ByStatus:             stats.ByStatus,
		HighPriority:         stats.HighPriority,
		Urgent:               stats.UrgentCount,
		AvgResolutionSeconds: stats.AvgResolution.Seconds(),
	}
}
