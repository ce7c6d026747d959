package domain

import "time"

// MaxCommentLength bounds comment content.
const MaxCommentLength = 1000

// CommentEditWindow is how long the author may edit a comment after creating it.
const CommentEditWindow = 15 * time.Minute

// Comment is a threaded remark attached to a ticket. Internal comments are
// visible to staff only, never to customers.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorRole Role
	Content    string
	Internal   bool
	EditedAt   *time.Time
	EditedBy   *string
	CreatedAt  time.Time
}

// Editable reports whether the author edit window is still open at now.
func (c *Comment) Editable(now time.Time) bool {
	return now.Sub(c.CreatedAt) <= CommentEditWindow
}
