package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/authz"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

// TicketService owns the ticket lifecycle: creation, assignment, the
// accept/reject sub-state machine, status transitions and their audit
// timestamps.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    domain.TicketCategory
	Tags        []string
}

// TicketListFilter describes listing parameters before role scoping.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortField   string
	SortAsc     bool
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Create opens a new ticket. Tickets always start OPEN with a PENDING
// acceptance state and no assignee.
func (s *TicketService) Create(ctx context.Context, p domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if !authz.Can(p.Role, authz.CapCreateTicket) {
		return nil, apperrors.NewForbidden("not allowed to create tickets")
	}
	if fieldErrs := validateCreateInput(&input); len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", fieldErrs...)
	}

	ticket := &domain.Ticket{
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Status:           domain.TicketStatusOpen,
		Priority:         input.Priority,
		Category:         input.Category,
		Tags:             input.Tags,
		CreatedBy:        p.ID,
		AcceptanceStatus: domain.AcceptancePending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketCreated, p, ticket)
	return ticket, nil
}

// Get fetches a ticket the principal may access.
func (s *TicketService) Get(ctx context.Context, p domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessTicket(ticket, p) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// Assign hands the ticket to an agent. The target must be an active user with
// the AGENT role. Re-assignment while acceptance is still pending overwrites
// the previous assignee; re-assignment after a rejection resets the
// acceptance state back to pending.
func (s *TicketService) Assign(ctx context.Context, p domain.Principal, ticketID, agentID string) (*domain.Ticket, error) {
	if !authz.Can(p.Role, authz.CapAssignTicket) {
		return nil, apperrors.NewForbidden("not allowed to assign tickets")
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent")
		}
		return nil, apperrors.MapError(err)
	}
	if agent.Role != domain.RoleAgent || !agent.Active {
		return nil, apperrors.NewValidationError("user is not an active agent",
			apperrors.FieldError{Field: "agent_id", Message: "must reference an active agent"})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket.AssignedTo = &agent.ID
	assignerID := p.ID
	ticket.AssignedBy = &assignerID
	ticket.AcceptanceStatus = domain.AcceptancePending
	ticket.RejectionReason = nil
	ticket.AssignedAt = &now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketAssigned, p, ticket)
	return ticket, nil
}

// Accept marks the assignment accepted and moves the ticket to IN_PROGRESS.
// The status overwrite is unconditional, even when a manager already moved
// the ticket further along; the lifecycle keeps that behavior on purpose.
func (s *TicketService) Accept(ctx context.Context, p domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsAssignedTo(p.ID) {
		return nil, apperrors.NewForbidden("ticket is not assigned to you")
	}
	if ticket.AcceptanceStatus == domain.AcceptanceAccepted {
		return nil, apperrors.NewInvalidState("ticket already accepted")
	}

	now := s.now()
	ticket.AcceptanceStatus = domain.AcceptanceAccepted
	ticket.AcceptedAt = &now
	ticket.RejectionReason = nil
	ticket.Status = domain.TicketStatusInProgress

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketAccepted, p, ticket)
	return ticket, nil
}

// Reject declines the assignment and returns the ticket to the pool: the
// assignee is cleared and the status goes back to OPEN. Every rejection is
// appended to the ticket's rejection history.
func (s *TicketService) Reject(ctx context.Context, p domain.Principal, ticketID, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason required",
			apperrors.FieldError{Field: "reason", Message: "must not be empty"})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsAssignedTo(p.ID) {
		return nil, apperrors.NewForbidden("ticket is not assigned to you")
	}
	if ticket.AcceptanceStatus == domain.AcceptanceAccepted {
		return nil, apperrors.NewInvalidState("cannot reject an accepted ticket")
	}

	now := s.now()
	ticket.RejectionHistory = append(ticket.RejectionHistory, domain.RejectionEntry{
		RejectedBy: p.ID,
		Reason:     reason,
		RejectedAt: now,
	})
	ticket.AcceptanceStatus = domain.AcceptanceRejected
	ticket.RejectedAt = &now
	ticket.RejectionReason = &reason
	ticket.AssignedTo = nil
	ticket.Status = domain.TicketStatusOpen

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketRejected, p, ticket)
	return ticket, nil
}

// Update applies an explicit change set after the authorization engine has
// validated the field set against the caller's role.
func (s *TicketService) Update(ctx context.Context, p domain.Principal, ticketID string, change domain.TicketChange) (*domain.Ticket, error) {
	if change.Empty() {
		return nil, apperrors.NewValidationError("no fields to update")
	}
	if fieldErrs := validateChange(change); len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket update", fieldErrs...)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateTicket(ticket, p, change) {
		return nil, apperrors.NewForbidden("not allowed to modify these fields")
	}

	s.applyChange(ticket, p, change)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketUpdated, p, ticket)
	return ticket, nil
}

// Delete removes a ticket permanently. Only an admin or the ticket's creator
// may do this.
func (s *TicketService) Delete(ctx context.Context, p domain.Principal, ticketID string) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if p.Role != domain.RoleAdmin && ticket.CreatedBy != p.ID {
		return apperrors.NewForbidden("not allowed to delete this ticket")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketDeleted, p, ticket)
	return nil
}

// List returns tickets visible to the principal plus the total matching
// count. Customers see only their own tickets; every staff role sees all of
// them, agents included.
func (s *TicketService) List(ctx context.Context, p domain.Principal, filter TicketListFilter) ([]domain.Ticket, int64, error) {
	repoFilter := repository.TicketFilter{
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		SortField:   filter.SortField,
		SortAsc:     filter.SortAsc,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if p.Role == domain.RoleCustomer {
		creator := p.ID
		repoFilter.CreatedBy = &creator
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.tickets.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// Stats aggregates counts scoped by role. Unlike listing, agent stats cover
// only tickets assigned to that agent.
func (s *TicketService) Stats(ctx context.Context, p domain.Principal) (*repository.TicketStats, error) {
	scope := repository.StatsScope{}
	switch p.Role {
	case domain.RoleCustomer:
		creator := p.ID
		scope.CreatedBy = &creator
	case domain.RoleAgent:
		assignee := p.ID
		scope.AssigneeID = &assignee
	}
	stats, err := s.tickets.Stats(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// applyChange mutates the ticket from a validated change set and stamps the
// set-once lifecycle timestamps for status transitions.
func (s *TicketService) applyChange(ticket *domain.Ticket, p domain.Principal, change domain.TicketChange) {
	if change.Title != nil {
		ticket.Title = strings.TrimSpace(*change.Title)
	}
	if change.Description != nil {
		ticket.Description = strings.TrimSpace(*change.Description)
	}
	if change.Priority != nil {
		ticket.Priority = *change.Priority
	}
	if change.Category != nil {
		ticket.Category = *change.Category
	}
	if change.Tags != nil {
		ticket.Tags = *change.Tags
	}
	if change.AssignedTo != nil {
		assignee := *change.AssignedTo
		ticket.AssignedTo = &assignee
		assigner := p.ID
		ticket.AssignedBy = &assigner
		if ticket.AssignedAt == nil {
			now := s.now()
			ticket.AssignedAt = &now
		}
	}
	if change.Status != nil {
		ticket.Status = *change.Status
		s.stampStatus(ticket)
	}
}

// stampStatus sets resolution/closure timestamps when the status enters
// RESOLVED or CLOSED. Stamps are set once and survive later transitions,
// reopening included; they are the audit trail, not the current state.
func (s *TicketService) stampStatus(ticket *domain.Ticket) {
	switch ticket.Status {
	case domain.TicketStatusResolved:
		if ticket.ResolvedAt == nil {
			now := s.now()
			ticket.ResolvedAt = &now
		}
	case domain.TicketStatusClosed:
		now := s.now()
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
		}
	}
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, p domain.Principal, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Actor:     events.Actor{UserID: p.ID, Role: p.Role},
		Timestamp: s.now(),
		Payload:   events.NewTicketPayload(ticket),
	})
}

func validateCreateInput(input *TicketCreateInput) []apperrors.FieldError {
	var fieldErrs []apperrors.FieldError
	if strings.TrimSpace(input.Title) == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "title", Message: "must not be empty"})
	}
	if strings.TrimSpace(input.Description) == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "description", Message: "must not be empty"})
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	} else if !input.Priority.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "priority", Message: "unknown priority"})
	}
	if input.Category == "" {
		input.Category = domain.CategoryOther
	} else if !input.Category.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "category", Message: "unknown category"})
	}
	if len(input.Tags) > domain.MaxTags {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "tags", Message: "at most 10 tags"})
	}
	return fieldErrs
}

func validateChange(change domain.TicketChange) []apperrors.FieldError {
	var fieldErrs []apperrors.FieldError
	if change.Title != nil && strings.TrimSpace(*change.Title) == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "title", Message: "must not be empty"})
	}
	if change.Description != nil && strings.TrimSpace(*change.Description) == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "description", Message: "must not be empty"})
	}
	if change.Status != nil && !change.Status.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "status", Message: "unknown status"})
	}
	if change.Priority != nil && !change.Priority.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "priority", Message: "unknown priority"})
	}
	if change.Category != nil && !change.Category.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "category", Message: "unknown category"})
	}
	if change.Tags != nil && len(*change.Tags) > domain.MaxTags {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "tags", Message: "at most 10 tags"})
	}
	return fieldErrs
}
