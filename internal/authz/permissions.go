package authz

import (
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// Capability is a named permission granted to a role.
type Capability string

const (
	CapManageUsers          Capability = "manage_users"
	CapViewUsers            Capability = "view_users"
	CapCreateTicket         Capability = "create_ticket"
	CapViewAllTickets       Capability = "view_all_tickets"
	CapViewOwnTickets       Capability = "view_own_tickets"
	CapViewAssignedTickets  Capability = "view_assigned_tickets"
	CapAssignTicket         Capability = "assign_ticket"
	CapUpdateTicketStatus   Capability = "update_ticket_status"
	CapUpdateTicketPriority Capability = "update_ticket_priority"
	CapDeleteTicket         Capability = "delete_ticket"
	CapCommentPublic        Capability = "comment_public"
	CapCommentInternal      Capability = "comment_internal"
	CapViewReports          Capability = "view_reports"
)

// permissions is the authoritative role → capability table, built once at
// package init and never mutated afterwards.
var permissions = buildTable(map[domain.Role][]Capability{
	domain.RoleAdmin: {
		CapManageUsers, CapViewUsers,
		CapCreateTicket, CapViewAllTickets, CapAssignTicket,
		CapUpdateTicketStatus, CapUpdateTicketPriority, CapDeleteTicket,
		CapCommentPublic, CapCommentInternal,
		CapViewReports,
	},
	domain.RoleManager: {
		CapViewUsers,
		CapCreateTicket, CapViewAllTickets, CapAssignTicket,
		CapUpdateTicketStatus, CapUpdateTicketPriority,
		CapCommentPublic, CapCommentInternal,
		CapViewReports,
	},
	domain.RoleAgent: {
		CapViewAssignedTickets, CapUpdateTicketStatus,
		CapCommentPublic, CapCommentInternal,
	},
	domain.RoleCustomer: {
		CapCreateTicket, CapViewOwnTickets,
		CapCommentPublic,
	},
})

func buildTable(src map[domain.Role][]Capability) map[domain.Role]map[Capability]struct{} {
	table := make(map[domain.Role]map[Capability]struct{}, len(src))
	for role, caps := range src {
		set := make(map[Capability]struct{}, len(caps))
		for _, cap := range caps {
			set[cap] = struct{}{}
		}
		table[role] = set
	}
	return table
}

// Can reports whether the role holds the capability. Unknown roles hold
// nothing.
func Can(role domain.Role, cap Capability) bool {
	set, ok := permissions[role]
	if !ok {
		return false
	}
	_, ok = set[cap]
	return ok
}

// Capabilities returns the capability set of a role, for reporting.
func Capabilities(role domain.Role) []Capability {
	set := permissions[role]
	caps := make([]Capability, 0, len(set))
	for cap := range set {
		caps = append(caps, cap)
	}
	return caps
}
