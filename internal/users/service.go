package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// Service manages console operators. Credentials live with the identity
// provider; this only tracks who exists and their role.
type Service interface {
	CreateUser(ctx context.Context, input CreateUserDTO) (*UserDTO, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	ListDrivers(ctx context.Context) ([]UserDTO, error)
	RequireDriver(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateUser(ctx context.Context, input CreateUserDTO) (*UserDTO, error) {
	problems := map[string]string{}
	if strings.TrimSpace(input.Username) == "" {
		problems["username"] = "is required"
	}
	if !input.Role.IsValid() {
		problems["role"] = "must be admin or driver"
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user").WithDetails(problems)
	}
	user, err := s.repo.Create(ctx, input)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) ListDrivers(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.ListByRole(ctx, enums.UserRoleDriver)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// RequireDriver fails unless id names an existing driver.
func (s *service) RequireDriver(ctx context.Context, id uuid.UUID) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != enums.UserRoleDriver {
		return pkgerrors.New(pkgerrors.CodeValidation, "user is not a driver").
			WithDetails(map[string]string{"driver_id": "must reference a driver"})
	}
	return nil
}
