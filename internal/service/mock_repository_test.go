package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository for service tests.
type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := cloneTicket(ticket)
	return &copied, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			out = append(out, cloneTicket(ticket))
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) Count(_ context.Context, filter repository.TicketFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			total++
		}
	}
	return total, nil
}

func (r *fakeTicketRepo) Stats(_ context.Context, scope repository.StatsScope) (*repository.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.TicketStats{ByStatus: make(map[domain.TicketStatus]int64)}
	for _, ticket := range r.tickets {
		if scope.CreatedBy != nil && ticket.CreatedBy != *scope.CreatedBy {
			continue
		}
		if scope.AssigneeID != nil && !ticket.IsAssignedTo(*scope.AssigneeID) {
			continue
		}
		stats.Total++
		stats.ByStatus[ticket.Status]++
		switch ticket.Priority {
		case domain.TicketPriorityHigh:
			stats.HighPriority++
		case domain.TicketPriorityUrgent:
			stats.UrgentCount++
		}
	}
	return stats, nil
}

func matchesFilter(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.AssigneeID != nil && !ticket.IsAssignedTo(*filter.AssigneeID) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	return true
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Tags = append([]string(nil), t.Tags...)
	t.RejectionHistory = append([]domain.RejectionEntry(nil), t.RejectionHistory...)
	return t
}

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) add(user domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			// The real repository surfaces the unique constraint as a pg error.
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, user := range r.users {
		if len(filter.Roles) > 0 && !containsRole(filter.Roles, user.Role) {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// fakeCommentRepo is an in-memory CommentRepository for service tests.
type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]domain.Comment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	r.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) Update(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[comment.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &comment, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	// Sequential fake IDs keep insertion order recoverable without timestamps.
	for i := 1; i <= r.seq; i++ {
		comment, ok := r.comments[fmt.Sprintf("comment-%d", i)]
		if ok && comment.TicketID == ticketID {
			out = append(out, comment)
		}
	}
	return out, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) SubscribeAll(events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}

func (d *recordingDispatcher) lastType() events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		return ""
	}
	return d.events[len(d.events)-1].Type
}
