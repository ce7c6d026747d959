package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// CommentRepository encapsulates comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

const commentColumns = "id, ticket_id, author_id, author_role, content, internal, edited_at, edited_by, created_at"

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, author_role, content, internal)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.AuthorRole,
		comment.Content,
		comment.Internal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	const query = `
        UPDATE comments SET content=$1, edited_at=$2, edited_by=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		comment.Content,
		comment.EditedAt,
		comment.EditedBy,
		comment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	query := "SELECT " + commentColumns + " FROM comments WHERE id=$1"
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.AuthorRole,
		&comment.Content,
		&comment.Internal,
		&comment.EditedAt,
		&comment.EditedBy,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM comments WHERE id=$1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByTicket returns comments oldest-first, conversation order.
func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.Comment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := "SELECT " + commentColumns + " FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3"
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.AuthorRole,
			&comment.Content,
			&comment.Internal,
			&comment.EditedAt,
			&comment.EditedBy,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
