package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

var (
	admin    = domain.Principal{ID: "admin-1", Role: domain.RoleAdmin, Active: true}
	manager  = domain.Principal{ID: "manager-1", Role: domain.RoleManager, Active: true}
	agent    = domain.Principal{ID: "agent-1", Role: domain.RoleAgent, Active: true}
	customer = domain.Principal{ID: "customer-1", Role: domain.RoleCustomer, Active: true}
)

type ticketFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	users      *fakeUserRepo
	dispatcher *recordingDispatcher
	clock      *time.Time
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	dispatcher := &recordingDispatcher{}
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fixture := &ticketFixture{tickets: tickets, users: users, dispatcher: dispatcher, clock: &now}

	users.add(domain.User{ID: agent.ID, Name: "Agent One", Email: "agent@example.com", Role: domain.RoleAgent, Active: true})
	users.add(domain.User{ID: "agent-2", Name: "Agent Two", Email: "agent2@example.com", Role: domain.RoleAgent, Active: true})
	users.add(domain.User{ID: customer.ID, Name: "Customer", Email: "customer@example.com", Role: domain.RoleCustomer, Active: true})

	fixture.service = NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return *fixture.clock },
	})
	return fixture
}

func (f *ticketFixture) advance(d time.Duration) {
	next := f.clock.Add(d)
	*f.clock = next
}

func (f *ticketFixture) mustCreate(t *testing.T, p domain.Principal) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.Create(context.Background(), p, TicketCreateInput{
		Title:       "printer on fire",
		Description: "smoke coming out of the tray",
		Priority:    domain.TicketPriorityHigh,
		Category:    domain.CategoryTechnical,
	})
	require.NoError(t, err)
	return ticket
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code)
}

func TestCreateTicketDefaults(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.service.Create(context.Background(), customer, TicketCreateInput{
		Title:       "  cannot log in  ",
		Description: "password reset loop",
	})
	require.NoError(t, err)
	require.Equal(t, "cannot log in", ticket.Title)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	require.Equal(t, domain.CategoryOther, ticket.Category)
	require.Equal(t, domain.AcceptancePending, ticket.AcceptanceStatus)
	require.Nil(t, ticket.AssignedTo)
	require.Equal(t, events.EventTicketCreated, f.dispatcher.lastType())
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.Create(context.Background(), customer, TicketCreateInput{
		Title:    "   ",
		Priority: domain.TicketPriority("EXTREME"),
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
	domainErr := apperrors.ToDomainError(err)
	fields := make([]string, 0, len(domainErr.Fields))
	for _, fe := range domainErr.Fields {
		fields = append(fields, fe.Field)
	}
	require.ElementsMatch(t, []string{"title", "description", "priority"}, fields)
}

func TestTicketTagLimit(t *testing.T) {
	f := newTicketFixture(t)

	tags := make([]string, domain.MaxTags+1)
	for i := range tags {
		tags[i] = "tag"
	}

	_, err := f.service.Create(context.Background(), customer, TicketCreateInput{
		Title:       "tagged",
		Description: "too many labels",
		Tags:        tags,
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
	require.Equal(t, "tags", apperrors.ToDomainError(err).Fields[0].Field)

	// The same bound applies when tags arrive through a change set.
	ticket := f.mustCreate(t, customer)
	_, err = f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Tags: &tags})
	requireDomainCode(t, err, "VALIDATION_FAILED")
	require.Equal(t, "tags", apperrors.ToDomainError(err).Fields[0].Field)

	// Exactly at the bound is fine.
	atLimit := tags[:domain.MaxTags]
	updated, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Tags: &atLimit})
	require.NoError(t, err)
	require.Len(t, updated.Tags, domain.MaxTags)
}

func TestCreateTicketForbiddenForAgent(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.service.Create(context.Background(), agent, TicketCreateInput{
		Title: "x", Description: "y",
	})
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestAssignTicket(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	assigned, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)
	require.Equal(t, agent.ID, *assigned.AssignedTo)
	require.Equal(t, manager.ID, *assigned.AssignedBy)
	require.Equal(t, domain.AcceptancePending, assigned.AcceptanceStatus)
	require.NotNil(t, assigned.AssignedAt)
	require.Equal(t, events.EventTicketAssigned, f.dispatcher.lastType())
}

func TestAssignTicketRejectsNonAgents(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	_, err := f.service.Assign(context.Background(), manager, ticket.ID, customer.ID)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.Assign(context.Background(), manager, ticket.ID, "no-such-user")
	requireDomainCode(t, err, "NOT_FOUND")

	_, err = f.service.Assign(context.Background(), agent, ticket.ID, agent.ID)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestReassignWhilePendingOverwritesAssignee(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)

	// The first agent never responded; handing the ticket to another agent
	// just replaces the assignee and leaves no trace in the rejection history.
	reassigned, err := f.service.Assign(context.Background(), admin, ticket.ID, "agent-2")
	require.NoError(t, err)
	require.Equal(t, "agent-2", *reassigned.AssignedTo)
	require.Equal(t, admin.ID, *reassigned.AssignedBy)
	require.Equal(t, domain.AcceptancePending, reassigned.AcceptanceStatus)
	require.Empty(t, reassigned.RejectionHistory)

	// The displaced agent can no longer act on the ticket.
	_, err = f.service.Accept(context.Background(), agent, ticket.ID)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestAcceptMovesTicketToInProgress(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)
	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)

	accepted, err := f.service.Accept(context.Background(), agent, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AcceptanceAccepted, accepted.AcceptanceStatus)
	require.Equal(t, domain.TicketStatusInProgress, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	_, err = f.service.Accept(context.Background(), agent, ticket.ID)
	requireDomainCode(t, err, "INVALID_STATE")
}

func TestAcceptRequiresAssignment(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)
	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)

	other := domain.Principal{ID: "agent-2", Role: domain.RoleAgent, Active: true}
	_, err = f.service.Accept(context.Background(), other, ticket.ID)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestRejectReturnsTicketToPool(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)
	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)

	rejected, err := f.service.Reject(context.Background(), agent, ticket.ID, "wrong queue")
	require.NoError(t, err)
	require.Nil(t, rejected.AssignedTo)
	require.Equal(t, domain.TicketStatusOpen, rejected.Status)
	require.Equal(t, domain.AcceptanceRejected, rejected.AcceptanceStatus)
	require.Equal(t, "wrong queue", *rejected.RejectionReason)
	require.Len(t, rejected.RejectionHistory, 1)
	require.Equal(t, agent.ID, rejected.RejectionHistory[0].RejectedBy)
	require.Equal(t, events.EventTicketRejected, f.dispatcher.lastType())
}

func TestRejectRequiresReason(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)
	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)

	_, err = f.service.Reject(context.Background(), agent, ticket.ID, "   ")
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestRejectAfterAcceptFails(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)
	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)
	_, err = f.service.Accept(context.Background(), agent, ticket.ID)
	require.NoError(t, err)

	_, err = f.service.Reject(context.Background(), agent, ticket.ID, "changed my mind")
	requireDomainCode(t, err, "INVALID_STATE")
}

// A ticket can bounce between agents: rejected by one, reassigned to another,
// then worked to resolution. The rejection history accumulates while the
// rejection reason follows the current state.
func TestRejectReassignAcceptResolveFlow(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	_, err := f.service.Assign(context.Background(), manager, ticket.ID, agent.ID)
	require.NoError(t, err)
	_, err = f.service.Reject(context.Background(), agent, ticket.ID, "out of my depth")
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	reassigned, err := f.service.Assign(context.Background(), manager, ticket.ID, "agent-2")
	require.NoError(t, err)
	require.Equal(t, domain.AcceptancePending, reassigned.AcceptanceStatus)
	require.Nil(t, reassigned.RejectionReason, "reason clears on reassignment")
	require.Len(t, reassigned.RejectionHistory, 1, "history survives reassignment")

	agent2 := domain.Principal{ID: "agent-2", Role: domain.RoleAgent, Active: true}
	_, err = f.service.Accept(context.Background(), agent2, ticket.ID)
	require.NoError(t, err)

	resolved := domain.TicketStatusResolved
	updated, err := f.service.Update(context.Background(), agent2, ticket.ID, domain.TicketChange{Status: &resolved})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)
}

func TestUpdateStampsSetOnceTimestamps(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	resolved := domain.TicketStatusResolved
	first, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Status: &resolved})
	require.NoError(t, err)
	resolvedAt := *first.ResolvedAt

	// Reopen, then resolve again later; the original stamp survives.
	f.advance(time.Hour)
	open := domain.TicketStatusOpen
	_, err = f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Status: &open})
	require.NoError(t, err)

	f.advance(time.Hour)
	again, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Status: &resolved})
	require.NoError(t, err)
	require.Equal(t, resolvedAt, *again.ResolvedAt)

	f.advance(time.Hour)
	closed := domain.TicketStatusClosed
	done, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Status: &closed})
	require.NoError(t, err)
	require.Equal(t, resolvedAt, *done.ResolvedAt)
	require.NotNil(t, done.ClosedAt)
	require.True(t, done.ClosedAt.After(resolvedAt))
}

func TestCloseWithoutResolveBackfillsResolvedAt(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	closed := domain.TicketStatusClosed
	done, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{Status: &closed})
	require.NoError(t, err)
	require.NotNil(t, done.ResolvedAt)
	require.Equal(t, *done.ResolvedAt, *done.ClosedAt)
}

func TestUpdateAuthorization(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	// Customer may retitle their own open ticket but never touch status.
	title := "better title"
	_, err := f.service.Update(context.Background(), customer, ticket.ID, domain.TicketChange{Title: &title})
	require.NoError(t, err)

	closed := domain.TicketStatusClosed
	_, err = f.service.Update(context.Background(), customer, ticket.ID, domain.TicketChange{Status: &closed})
	requireDomainCode(t, err, "FORBIDDEN")

	// Agent without an accepted assignment cannot mutate at all.
	resolved := domain.TicketStatusResolved
	_, err = f.service.Update(context.Background(), agent, ticket.ID, domain.TicketChange{Status: &resolved})
	requireDomainCode(t, err, "FORBIDDEN")

	_, err = f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChange{})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateAssigneeViaChangeSet(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	assignee := agent.ID
	updated, err := f.service.Update(context.Background(), manager, ticket.ID, domain.TicketChange{AssignedTo: &assignee})
	require.NoError(t, err)
	require.Equal(t, agent.ID, *updated.AssignedTo)
	require.Equal(t, manager.ID, *updated.AssignedBy)
	require.NotNil(t, updated.AssignedAt)
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	err := f.service.Delete(context.Background(), manager, ticket.ID)
	requireDomainCode(t, err, "FORBIDDEN")

	require.NoError(t, f.service.Delete(context.Background(), customer, ticket.ID))
	_, err = f.service.Get(context.Background(), admin, ticket.ID)
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestGetTicketScoping(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.mustCreate(t, customer)

	_, err := f.service.Get(context.Background(), agent, ticket.ID)
	require.NoError(t, err)

	stranger := domain.Principal{ID: "customer-2", Role: domain.RoleCustomer, Active: true}
	_, err = f.service.Get(context.Background(), stranger, ticket.ID)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestListScopesCustomers(t *testing.T) {
	f := newTicketFixture(t)
	f.mustCreate(t, customer)
	f.mustCreate(t, admin)

	mine, total, err := f.service.List(context.Background(), customer, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.EqualValues(t, 1, total)
	require.Equal(t, customer.ID, mine[0].CreatedBy)

	// Agents see the whole queue, assigned or not.
	all, total, err := f.service.List(context.Background(), agent, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.EqualValues(t, 2, total)
}

func TestStatsScoping(t *testing.T) {
	f := newTicketFixture(t)
	first := f.mustCreate(t, customer)
	f.mustCreate(t, customer)
	f.mustCreate(t, admin)

	_, err := f.service.Assign(context.Background(), manager, first.ID, agent.ID)
	require.NoError(t, err)

	adminStats, err := f.service.Stats(context.Background(), admin)
	require.NoError(t, err)
	require.EqualValues(t, 3, adminStats.Total)

	// Agent stats cover assigned tickets only, unlike listing.
	agentStats, err := f.service.Stats(context.Background(), agent)
	require.NoError(t, err)
	require.EqualValues(t, 1, agentStats.Total)

	customerStats, err := f.service.Stats(context.Background(), customer)
	require.NoError(t, err)
	require.EqualValues(t, 2, customerStats.Total)
}
