package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/dto"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/service"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

// UsersHandler manages registration, login and user administration.
type UsersHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{authService: authService, userService: userService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	result, err := h.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.OK("registered", authResponse(result)))
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("logged in", authResponse(result)))
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	user, err := h.userService.Create(c.UserContext(), principal, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.OK("user created", dto.NewUserResponse(user)))
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.UserFilter{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if roles := c.Query("role"); roles != "" {
		for _, role := range strings.Split(roles, ",") {
			filter.Roles = append(filter.Roles, domain.Role(strings.ToUpper(strings.TrimSpace(role))))
		}
	}
	if active := c.Query("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err == nil {
			filter.Active = &parsed
		}
	}
	users, err := h.userService.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(dto.OK("users", items))
}

// ChangeRole PATCH /users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	user, err := h.userService.ChangeRole(c.UserContext(), principal, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("role updated", dto.NewUserResponse(user)))
}

// SetActive PATCH /users/:id/active.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	user, err := h.userService.SetActive(c.UserContext(), principal, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("user updated", dto.NewUserResponse(user)))
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
