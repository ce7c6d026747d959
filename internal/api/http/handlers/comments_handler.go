package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/dto"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/service"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

// CommentsHandler manages ticket comment endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// Create POST /tickets/:id/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	comment, err := h.service.Create(c.UserContext(), principal, c.Params("id"), req.Content, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.OK("comment added", dto.NewCommentResponse(comment)))
}

// List GET /tickets/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	comments, err := h.service.List(c.UserContext(), principal, c.Params("id"),
		queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(dto.OK("comments", items))
}

// Get GET /comments/:id.
func (h *CommentsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	comment, err := h.service.GetByID(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("comment", dto.NewCommentResponse(comment)))
}

// Update PATCH /comments/:id.
func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	comment, err := h.service.Update(c.UserContext(), principal, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("comment updated", dto.NewCommentResponse(comment)))
}

// Delete DELETE /comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.OK("comment deleted", nil))
}
