package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

func strPtr(s string) *string { return &s }

func statusPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }

func priorityPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }

func testTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:               "t-1",
		CreatedBy:        "customer-1",
		Status:           domain.TicketStatusOpen,
		AcceptanceStatus: domain.AcceptancePending,
	}
}

func TestCanAccessTicket(t *testing.T) {
	ticket := testTicket()

	require.True(t, CanAccessTicket(ticket, domain.Principal{ID: "a", Role: domain.RoleAdmin}))
	require.True(t, CanAccessTicket(ticket, domain.Principal{ID: "m", Role: domain.RoleManager}))
	require.True(t, CanAccessTicket(ticket, domain.Principal{ID: "g", Role: domain.RoleAgent}))
	require.True(t, CanAccessTicket(ticket, domain.Principal{ID: "customer-1", Role: domain.RoleCustomer}))
	require.False(t, CanAccessTicket(ticket, domain.Principal{ID: "customer-2", Role: domain.RoleCustomer}))
	require.False(t, CanAccessTicket(ticket, domain.Principal{ID: "x", Role: domain.Role("OTHER")}))
}

func TestCanMutateTicketStaff(t *testing.T) {
	ticket := testTicket()
	change := domain.TicketChange{Status: statusPtr(domain.TicketStatusClosed)}

	require.True(t, CanMutateTicket(ticket, domain.Principal{ID: "a", Role: domain.RoleAdmin}, change))
	require.True(t, CanMutateTicket(ticket, domain.Principal{ID: "m", Role: domain.RoleManager}, change))
}

func TestCanMutateTicketAgent(t *testing.T) {
	agent := domain.Principal{ID: "agent-1", Role: domain.RoleAgent}
	statusChange := domain.TicketChange{Status: statusPtr(domain.TicketStatusResolved)}

	unassigned := testTicket()
	require.False(t, CanMutateTicket(unassigned, agent, statusChange))

	assignedPending := testTicket()
	assignedPending.AssignedTo = strPtr("agent-1")
	require.False(t, CanMutateTicket(assignedPending, agent, statusChange),
		"pending acceptance blocks agent mutation")

	accepted := testTicket()
	accepted.AssignedTo = strPtr("agent-1")
	accepted.AcceptanceStatus = domain.AcceptanceAccepted
	require.True(t, CanMutateTicket(accepted, agent, statusChange))

	// Assigned to someone else.
	other := testTicket()
	other.AssignedTo = strPtr("agent-2")
	other.AcceptanceStatus = domain.AcceptanceAccepted
	require.False(t, CanMutateTicket(other, agent, statusChange))

	// Status plus any other field is out of the agent's lane.
	mixed := domain.TicketChange{
		Status:   statusPtr(domain.TicketStatusResolved),
		Priority: priorityPtr(domain.TicketPriorityHigh),
	}
	require.False(t, CanMutateTicket(accepted, agent, mixed))
}

func TestCanMutateTicketCustomer(t *testing.T) {
	owner := domain.Principal{ID: "customer-1", Role: domain.RoleCustomer}
	stranger := domain.Principal{ID: "customer-2", Role: domain.RoleCustomer}

	edit := domain.TicketChange{
		Title:    strPtr("clearer title"),
		Priority: priorityPtr(domain.TicketPriorityHigh),
	}

	open := testTicket()
	require.True(t, CanMutateTicket(open, owner, edit))
	require.False(t, CanMutateTicket(open, stranger, edit))

	inProgress := testTicket()
	inProgress.Status = domain.TicketStatusInProgress
	require.False(t, CanMutateTicket(inProgress, owner, edit),
		"customer edits end once work starts")

	statusChange := domain.TicketChange{Status: statusPtr(domain.TicketStatusClosed)}
	require.False(t, CanMutateTicket(open, owner, statusChange))

	require.False(t, CanMutateTicket(open, owner, domain.TicketChange{}),
		"empty change set is never authorized")
}

func TestCanManageUser(t *testing.T) {
	require.True(t, CanManageUser(domain.RoleAdmin, domain.RoleAdmin))
	require.True(t, CanManageUser(domain.RoleAdmin, domain.RoleManager))
	require.True(t, CanManageUser(domain.RoleAdmin, domain.RoleAgent))
	require.True(t, CanManageUser(domain.RoleAdmin, domain.RoleCustomer))

	require.False(t, CanManageUser(domain.RoleManager, domain.RoleAdmin))
	require.False(t, CanManageUser(domain.RoleManager, domain.RoleManager))
	require.True(t, CanManageUser(domain.RoleManager, domain.RoleAgent))
	require.True(t, CanManageUser(domain.RoleManager, domain.RoleCustomer))

	require.False(t, CanManageUser(domain.RoleAgent, domain.RoleCustomer))
	require.False(t, CanManageUser(domain.RoleCustomer, domain.RoleCustomer))
}

func TestCanGrantRole(t *testing.T) {
	require.True(t, CanGrantRole(domain.RoleAdmin, domain.RoleManager))
	require.False(t, CanGrantRole(domain.RoleManager, domain.RoleManager))
	require.True(t, CanGrantRole(domain.RoleManager, domain.RoleAgent))
}
