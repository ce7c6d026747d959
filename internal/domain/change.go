package domain

// TicketField names a mutable ticket field in a change set.
type TicketField string

const (
	FieldTitle       TicketField = "title"
	FieldDescription TicketField = "description"
	FieldStatus      TicketField = "status"
	FieldPriority    TicketField = "priority"
	FieldCategory    TicketField = "category"
	FieldTags        TicketField = "tags"
	FieldAssignedTo  TicketField = "assigned_to"
)

// TicketChange is an explicit change set for a ticket update. Nil fields are
// untouched, so the set of populated fields is exactly what the caller asked
// to mutate and what the authorization engine validates against.
type TicketChange struct {
	Title       *string
	Description *string
	Status      *TicketStatus
	Priority    *TicketPriority
	Category    *TicketCategory
	Tags        *[]string
	AssignedTo  *string
}

// FieldSet returns the names of the populated fields.
func (c TicketChange) FieldSet() []TicketField {
	var fields []TicketField
	if c.Title != nil {
		fields = append(fields, FieldTitle)
	}
	if c.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if c.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if c.Priority != nil {
		fields = append(fields, FieldPriority)
	}
	if c.Category != nil {
		fields = append(fields, FieldCategory)
	}
	if c.Tags != nil {
		fields = append(fields, FieldTags)
	}
	if c.AssignedTo != nil {
		fields = append(fields, FieldAssignedTo)
	}
	return fields
}

// Empty reports whether no fields are populated.
func (c TicketChange) Empty() bool {
	return len(c.FieldSet()) == 0
}
