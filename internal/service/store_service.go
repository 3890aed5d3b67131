package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

// NewUserInput describes a staff account created by an administrator. RoleID
// wins over RoleName when both are set.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	RoleID   *uuid.UUID
	RoleName string
}

// StoreService manages stores, their members and the role catalogue
type StoreService interface {
	CreateStore(ctx context.Context, name string) (*domain.Store, error)
	GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	RenameStore(ctx context.Context, id uuid.UUID, name string) (*domain.Store, error)
	ListStores(ctx context.Context) ([]*domain.Store, error)
	ListUsers(ctx context.Context, storeID uuid.UUID) ([]*domain.User, error)
	CreateUser(ctx context.Context, storeID uuid.UUID, in NewUserInput) (*domain.User, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
	SetUserPassword(ctx context.Context, email, password string) error
}

type storeService struct {
	stores repository.StoreRepository
	users  repository.UserRepository
	roles  repository.RoleRepository
	now    func() time.Time
}

func NewStoreService(stores repository.StoreRepository, users repository.UserRepository, roles repository.RoleRepository) StoreService {
	return &storeService{stores: stores, users: users, roles: roles, now: time.Now}
}

func (s *storeService) CreateStore(ctx context.Context, name string) (*domain.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: store name is required", ErrInvalidInput)
	}

	now := s.now()
	store := &domain.Store{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *storeService) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	return s.stores.FindByID(ctx, id)
}

func (s *storeService) RenameStore(ctx context.Context, id uuid.UUID, name string) (*domain.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: store name is required", ErrInvalidInput)
	}
	return s.stores.UpdateName(ctx, id, name)
}

func (s *storeService) ListStores(ctx context.Context) ([]*domain.Store, error) {
	return s.stores.List(ctx)
}

func (s *storeService) ListUsers(ctx context.Context, storeID uuid.UUID) ([]*domain.User, error) {
	return s.users.ListByStore(ctx, storeID)
}

// CreateUser adds a pre-verified member to the store
func (s *storeService) CreateUser(ctx context.Context, storeID uuid.UUID, in NewUserInput) (*domain.User, error) {
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	role, err := s.resolveRole(ctx, in)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Name) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	hashedPassword, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:            uuid.New(),
		StoreID:       &storeID,
		RoleID:        role.ID,
		RoleName:      role.Name,
		Name:          strings.TrimSpace(in.Name),
		Email:         email,
		PasswordHash:  hashedPassword,
		EmailVerified: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *storeService) resolveRole(ctx context.Context, in NewUserInput) (*domain.Role, error) {
	var role *domain.Role
	var err error
	if in.RoleID != nil {
		role, err = s.roles.FindByID(ctx, *in.RoleID)
	} else {
		role, err = s.roles.FindByName(ctx, in.RoleName)
	}
	if errors.Is(err, repository.ErrRoleNotFound) {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidInput)
	}
	return role, err
}

func (s *storeService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

// SetUserPassword replaces a user's password without the current one; used by operators
func (s *storeService) SetUserPassword(ctx context.Context, email, password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, hashedPassword)
}
