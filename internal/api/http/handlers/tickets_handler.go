package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/dto"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/service"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	ticket, err := h.service.Create(c.UserContext(), principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.OK("ticket created", dto.NewTicketResponse(ticket)))
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("ticket", dto.NewTicketResponse(ticket)))
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	tickets, total, err := h.service.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(dto.OK("tickets", dto.TicketListResponse{Items: items, Total: total}))
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	ticket, err := h.service.Update(c.UserContext(), principal, c.Params("id"), req.Change())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("ticket updated", dto.NewTicketResponse(ticket)))
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return apperrors.NewValidationError("invalid assignment",
			apperrors.FieldError{Field: "agent_id", Message: "must not be empty"})
	}
	ticket, err := h.service.Assign(c.UserContext(), principal, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("ticket assigned", dto.NewTicketResponse(ticket)))
}

// Accept POST /tickets/:id/accept.
func (h *TicketsHandler) Accept(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Accept(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("ticket accepted", dto.NewTicketResponse(ticket)))
}

// Reject POST /tickets/:id/reject.
func (h *TicketsHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	ticket, err := h.service.Reject(c.UserContext(), principal, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("ticket rejected", dto.NewTicketResponse(ticket)))
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.OK("ticket deleted", nil))
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.Stats(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("stats", dto.NewTicketStatsResponse(stats)))
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		SortField: c.Query("sort", "created_at"),
		SortAsc:   strings.EqualFold(c.Query("order"), "asc"),
		Limit:     queryInt(c, "limit", 20),
		Offset:    queryInt(c, "offset", 0),
	}
	for _, status := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(status)))
	}
	for _, priority := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(priority)))
	}
	for _, category := range splitQuery(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.TicketCategory(strings.ToUpper(category)))
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := c.Query("created_from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.CreatedFrom = &parsed
		}
	}
	if to := c.Query("created_to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.CreatedTo = &parsed
		}
	}
	return filter
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
