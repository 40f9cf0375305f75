package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rtdacademy/connect-backend/internal/model"
)

type staffStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)
	GetByID(ctx context.Context, id int) (*model.Staff, error)
	Create(ctx context.Context, s *model.Staff) error
	GetRolePermissions(ctx context.Context, roleID int) ([]string, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
}

type staffTokenIssuer interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) error
	GenerateStaffToken(staffID, roleID int, email string, permissions []string) (string, error)
}

// StaffService handles staff accounts and authentication.
type StaffService struct {
	staff staffStore
	auth  staffTokenIssuer
}

// NewStaffService creates a new StaffService.
func NewStaffService(staff staffStore, auth staffTokenIssuer) *StaffService {
	return &StaffService{staff: staff, auth: auth}
}

// Login authenticates a staff member and issues a token carrying their
// role's permissions.
func (s *StaffService) Login(ctx context.Context, req *model.StaffLoginRequest) (*model.StaffLoginResponse, error) {
	staff, err := s.staff.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load staff: %w", err)
	}

	if err := s.auth.CheckPassword(staff.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	permissions, err := s.staff.GetRolePermissions(ctx, staff.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}

	token, err := s.auth.GenerateStaffToken(staff.ID, staff.RoleID, staff.Email, permissions)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.StaffLoginResponse{Token: token, Staff: *staff}, nil
}

// Create adds a staff account with a hashed password.
func (s *StaffService) Create(ctx context.Context, name, email, password string, roleID int) (*model.Staff, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	staff := &model.Staff{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}
	return staff, nil
}

// ListRoles retrieves all roles with their permissions.
func (s *StaffService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.staff.ListRoles(ctx)
}
