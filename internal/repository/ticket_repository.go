package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// TicketFilter captures listing parameters. Scoping fields (CreatedBy,
// AssigneeID) are set by the service layer from the caller's role.
type TicketFilter struct {
	CreatedBy   *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortField   string
	SortAsc     bool
	Limit       int
	Offset      int
}

// TicketStats aggregates counts for reporting.
type TicketStats struct {
	Total         int64
	ByStatus      map[domain.TicketStatus]int64
	HighPriority  int64
	UrgentCount   int64
	AvgResolution time.Duration
}

// StatsScope narrows aggregation the same way listing is scoped.
type StatsScope struct {
	CreatedBy  *string
	AssigneeID *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	Stats(ctx context.Context, scope StatsScope) (*TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status, priority, category, tags,
               created_by, assigned_to, assigned_by, acceptance_status,
               rejection_reason, rejection_history,
               created_at, updated_at, assigned_at, accepted_at, rejected_at, resolved_at, closed_at`

// sortColumns whitelists caller-specified sort fields.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"priority":   "priority",
	"status":     "status",
	"title":      "title",
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	history, err := json.Marshal(ticket.RejectionHistory)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (title, description, status, priority, category, tags,
                             created_by, assigned_to, assigned_by, acceptance_status,
                             rejection_reason, rejection_history)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.Tags,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.AssignedBy,
		ticket.AcceptanceStatus,
		ticket.RejectionReason,
		history,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	history, err := json.Marshal(ticket.RejectionHistory)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, category=$5, tags=$6,
            assigned_to=$7, assigned_by=$8, acceptance_status=$9,
            rejection_reason=$10, rejection_history=$11,
            assigned_at=$12, accepted_at=$13, rejected_at=$14, resolved_at=$15, closed_at=$16,
            updated_at=NOW()
        WHERE id=$17`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.Tags,
		ticket.AssignedTo,
		ticket.AssignedBy,
		ticket.AcceptanceStatus,
		ticket.RejectionReason,
		history,
		ticket.AssignedAt,
		ticket.AcceptedAt,
		ticket.RejectedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE id=$1", ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tickets WHERE id=$1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	sortColumn, ok := sortColumns[filter.SortField]
	if !ok {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM tickets WHERE %s ORDER BY %s %s, id %s LIMIT %d OFFSET %d",
		ticketColumns, strings.Join(clauses, " AND "), sortColumn, direction, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM tickets WHERE %s", strings.Join(clauses, " AND "))
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) Stats(ctx context.Context, scope StatsScope) (*TicketStats, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if scope.CreatedBy != nil {
		args = append(args, *scope.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if scope.AssigneeID != nil {
		args = append(args, *scope.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='OPEN'),
               COUNT(*) FILTER (WHERE status='IN_PROGRESS'),
               COUNT(*) FILTER (WHERE status='RESOLVED'),
               COUNT(*) FILTER (WHERE status='CLOSED'),
               COUNT(*) FILTER (WHERE priority='HIGH'),
               COUNT(*) FILTER (WHERE priority='URGENT'),
               COALESCE(AVG(EXTRACT(EPOCH FROM resolved_at - created_at)) FILTER (WHERE resolved_at IS NOT NULL), 0)
        FROM tickets WHERE %s`, where)

	stats := &TicketStats{ByStatus: make(map[domain.TicketStatus]int64)}
	var open, inProgress, resolved, closed int64
	var avgSeconds float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&open,
		&inProgress,
		&resolved,
		&closed,
		&stats.HighPriority,
		&stats.UrgentCount,
		&avgSeconds,
	); err != nil {
		return nil, err
	}
	stats.ByStatus[domain.TicketStatusOpen] = open
	stats.ByStatus[domain.TicketStatusInProgress] = inProgress
	stats.ByStatus[domain.TicketStatusResolved] = resolved
	stats.ByStatus[domain.TicketStatusClosed] = closed
	stats.AvgResolution = time.Duration(avgSeconds * float64(time.Second))
	return stats, nil
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE LOWER(tag) LIKE %s))",
			placeholder, placeholder, placeholder))
	}
	return clauses, args
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var history []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.Tags,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.AssignedBy,
		&ticket.AcceptanceStatus,
		&ticket.RejectionReason,
		&history,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.AssignedAt,
		&ticket.AcceptedAt,
		&ticket.RejectedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &ticket.RejectionHistory); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}
