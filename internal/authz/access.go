package authz

import (
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// CanAccessTicket decides read access. Staff roles see every ticket for
// situational awareness; customers only their own.
func CanAccessTicket(ticket *domain.Ticket, p domain.Principal) bool {
	switch p.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleAgent:
		return true
	case domain.RoleCustomer:
		return ticket.CreatedBy == p.ID
	}
	return false
}

// CanMutateTicket decides whether the principal may apply the proposed change
// set. Admin and Manager mutate unconditionally. An agent may touch only the
// status, and only on a ticket assigned to them that they have accepted. A
// customer may touch title, description and priority on their own ticket
// while it is still open.
func CanMutateTicket(ticket *domain.Ticket, p domain.Principal, change domain.TicketChange) bool {
	switch p.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleAgent:
		if !ticket.IsAssignedTo(p.ID) || ticket.AcceptanceStatus != domain.AcceptanceAccepted {
			return false
		}
		return fieldsWithin(change, domain.FieldStatus)
	case domain.RoleCustomer:
		if ticket.CreatedBy != p.ID || ticket.Status != domain.TicketStatusOpen {
			return false
		}
		return fieldsWithin(change, domain.FieldTitle, domain.FieldDescription, domain.FieldPriority)
	}
	return false
}

// CanManageUser decides whether the actor role may create/update/deactivate a
// user holding the target role. Managers are limited to agents and customers.
func CanManageUser(actor, target domain.Role) bool {
	switch actor {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return target == domain.RoleAgent || target == domain.RoleCustomer
	}
	return false
}

// CanGrantRole decides whether the actor may grant the given role. A manager
// can never grant ADMIN or MANAGER; the attempt is a denial, not a downgrade.
func CanGrantRole(actor, granted domain.Role) bool {
	return CanManageUser(actor, granted)
}

func fieldsWithin(change domain.TicketChange, allowed ...domain.TicketField) bool {
	fields := change.FieldSet()
	if len(fields) == 0 {
		return false
	}
	allowedSet := make(map[domain.TicketField]struct{}, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = struct{}{}
	}
	for _, f := range fields {
		if _, ok := allowedSet[f]; !ok {
			return false
		}
	}
	return true
}
