package dto

import (
	"time"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content  string `json:"content"`
	Internal bool   `json:"internal"`
}

// UpdateCommentRequest payload.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the public comment shape.
type CommentResponse struct {
	ID         string      `json:"id"`
	TicketID   string      `json:"ticket_id"`
	AuthorID   string      `json:"author_id"`
	AuthorRole domain.Role `json:"author_role"`
	Content    string      `json:"content"`
	Internal   bool        `json:"internal"`
	EditedAt   *time.Time  `json:"edited_at,omitempty"`
	EditedBy   *string     `json:"edited_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		AuthorRole: c.AuthorRole,
		Content:    c.Content,
		Internal:   c.Internal,
		EditedAt:   c.EditedAt,
		EditedBy:   c.EditedBy,
		CreatedAt:  c.CreatedAt,
	}
}
