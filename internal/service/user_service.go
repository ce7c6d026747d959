package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/authz"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

// UserService covers staff-side user management under the role hierarchy:
// admins act on anyone, managers only on agents and customers. Accounts are
// deactivated, never hard-deleted.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// CreateUserInput describes an admin/manager-created account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Create adds an account with an explicit role, subject to hierarchy rules.
func (s *UserService) Create(ctx context.Context, p domain.Principal, input CreateUserInput) (*domain.User, error) {
	if !authz.Can(p.Role, authz.CapManageUsers) && p.Role != domain.RoleManager {
		return nil, apperrors.NewForbidden("not allowed to create users")
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid user",
			apperrors.FieldError{Field: "role", Message: "unknown role"})
	}
	if !authz.CanGrantRole(p.Role, input.Role) {
		return nil, apperrors.NewForbidden("not allowed to grant this role")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns users visible to the principal. Managers only see agents and
// customers.
func (s *UserService) List(ctx context.Context, p domain.Principal, filter repository.UserFilter) ([]domain.User, error) {
	if !authz.Can(p.Role, authz.CapViewUsers) {
		return nil, apperrors.NewForbidden("not allowed to view users")
	}
	if p.Role == domain.RoleManager {
		filter.Roles = restrictRoles(filter.Roles, domain.RoleAgent, domain.RoleCustomer)
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ChangeRole grants a different role to a user, subject to hierarchy rules.
// A user can never change their own role.
func (s *UserService) ChangeRole(ctx context.Context, p domain.Principal, userID string, newRole domain.Role) (*domain.User, error) {
	if userID == p.ID {
		return nil, apperrors.NewForbidden("cannot change your own role")
	}
	if !newRole.Valid() {
		return nil, apperrors.NewValidationError("invalid role change",
			apperrors.FieldError{Field: "role", Message: "unknown role"})
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageUser(p.Role, user.Role) || !authz.CanGrantRole(p.Role, newRole) {
		return nil, apperrors.NewForbidden("not allowed to change this user's role")
	}

	user.Role = newRole
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// SetActive activates or deactivates an account. Deactivation is the soft
// delete; there is no hard user delete.
func (s *UserService) SetActive(ctx context.Context, p domain.Principal, userID string, active bool) (*domain.User, error) {
	if userID == p.ID {
		return nil, apperrors.NewForbidden("cannot deactivate yourself")
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageUser(p.Role, user.Role) {
		return nil, apperrors.NewForbidden("not allowed to manage this user")
	}

	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func restrictRoles(requested []domain.Role, allowed ...domain.Role) []domain.Role {
	if len(requested) == 0 {
		return allowed
	}
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	var result []domain.Role
	for _, role := range requested {
		if _, ok := allowedSet[role]; ok {
			result = append(result, role)
		}
	}
	if len(result) == 0 {
		return allowed
	}
	return result
}
