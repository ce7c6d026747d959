package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/authz"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

// CommentService manages the threaded remarks on a ticket, including the
// internal/public visibility split and the author edit window.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Create attaches a comment to an accessible ticket. Internal comments are a
// staff facility; customers may only post public comments.
func (s *CommentService) Create(ctx context.Context, p domain.Principal, ticketID, content string, internal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	ticket, err := s.accessibleTicket(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	if internal && !authz.Can(p.Role, authz.CapCommentInternal) {
		return nil, apperrors.NewForbidden("internal comments are staff only")
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   p.ID,
		AuthorRole: p.Role,
		Content:    content,
		Internal:   internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventCommentAdded, p, comment)
	return comment, nil
}

// List returns the ticket's comments in conversation order. Internal
// comments are stripped for customers.
func (s *CommentService) List(ctx context.Context, p domain.Principal, ticketID string, limit, offset int) ([]domain.Comment, error) {
	if _, err := s.accessibleTicket(ctx, p, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if p.Role != domain.RoleCustomer {
		return comments, nil
	}
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.Internal {
			continue
		}
		visible = append(visible, comment)
	}
	return visible, nil
}

// GetByID fetches one comment under the same access and visibility rules as
// listing.
func (s *CommentService) GetByID(ctx context.Context, p domain.Principal, commentID string) (*domain.Comment, error) {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleTicket(ctx, p, comment.TicketID); err != nil {
		return nil, err
	}
	if comment.Internal && p.Role == domain.RoleCustomer {
		return nil, apperrors.NewNotFound("comment")
	}
	return comment, nil
}

// Update edits a comment's content. Only the author may edit, and only
// within the edit window from creation.
func (s *CommentService) Update(ctx context.Context, p domain.Principal, commentID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != p.ID {
		return nil, apperrors.NewForbidden("only the author may edit a comment")
	}
	now := s.now()
	if !comment.Editable(now) {
		return nil, apperrors.NewForbidden("edit window has closed")
	}

	comment.Content = content
	comment.EditedAt = &now
	editor := p.ID
	comment.EditedBy = &editor

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventCommentUpdated, p, comment)
	return comment, nil
}

// Delete removes a comment. Permitted for the author and for admins.
func (s *CommentService) Delete(ctx context.Context, p domain.Principal, commentID string) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != p.ID && p.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("not allowed to delete this comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.EventCommentDeleted, p, comment)
	return nil
}

// validateCommentContent bounds the trimmed content in characters, not bytes,
// so multibyte text gets the full length allowance.
func validateCommentContent(content string) error {
	if content == "" || utf8.RuneCountInString(content) > domain.MaxCommentLength {
		return apperrors.NewValidationError("invalid comment",
			apperrors.FieldError{Field: "content", Message: "must be 1-1000 characters"})
	}
	return nil
}

func (s *CommentService) accessibleTicket(ctx context.Context, p domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanAccessTicket(ticket, p) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *CommentService) getComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("comment")
		}
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

func (s *CommentService) publish(ctx context.Context, eventType events.EventType, p domain.Principal, comment *domain.Comment) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  comment.TicketID,
		Actor:     events.Actor{UserID: p.ID, Role: p.Role},
		Timestamp: s.now(),
		Payload: events.CommentPayload{
			ID:        comment.ID,
			TicketID:  comment.TicketID,
			AuthorID:  comment.AuthorID,
			Role:      comment.AuthorRole,
			Internal:  comment.Internal,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		},
	})
}
