package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"usermanager/internal/auth"
	apperrors "usermanager/internal/errors"
	"usermanager/internal/metrics"
	"usermanager/internal/model"
	"usermanager/internal/repository"
)

// CreateUserInput carries the fields accepted on creation. An empty Role
// defaults to model.RoleUser.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *model.Role
}

// IsEmpty reports whether the update carries no recognized field.
func (in UpdateUserInput) IsEmpty() bool {
	return in.Name == nil && in.Email == nil && in.Role == nil
}

// UserService exposes user management operations.
type UserService interface {
	// Create returns the stored record, password hash included.
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	// Update returns the updated record without the password hash.
	Update(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint, newPassword, currentPassword string) error
	FindAll(ctx context.Context) ([]model.User, error)
	FindOne(ctx context.Context, id uint) (*model.User, error)
	// FindOneByEmail returns (nil, nil) when no user has the email. The
	// returned record keeps its password hash for credential checks.
	FindOneByEmail(ctx context.Context, email string) (*model.User, error)
	Remove(ctx context.Context, id uint) error
}

type userService struct {
	repo   repository.UserRepository
	hasher auth.PasswordHasher
}

// NewUserService builds a UserService over the credential store.
func NewUserService(repo repository.UserRepository, hasher auth.PasswordHasher) UserService {
	return &userService{repo: repo, hasher: hasher}
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (user *model.User, err error) {
	defer func() { metrics.ObserveUserOperation("create", err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ErrNameRequired
	}
	if in.Email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if in.Password == "" {
		return nil, apperrors.ErrPasswordRequired
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	existing, err := s.FindOneByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user = &model.User{
		Name:     name,
		Email:    in.Email,
		Password: hash,
		Role:     role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// a concurrent create won the race between the check and the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uint, in UpdateUserInput) (user *model.User, err error) {
	defer func() { metrics.ObserveUserOperation("update", err) }()

	if in.IsEmpty() {
		return nil, apperrors.ErrEmptyUpdate
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]any, 3)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.ErrNameRequired
		}
		fields["name"] = name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.ErrInvalidRole
		}
		fields["role"] = *in.Role
	}
	if in.Email != nil {
		if *in.Email == "" {
			return nil, apperrors.ErrEmailRequired
		}
		owner, err := s.FindOneByEmail(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if owner != nil && owner.ID != id {
			return nil, apperrors.ErrDuplicateEmail
		}
		fields["email"] = *in.Email
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return updated.WithoutPassword(), nil
}

func (s *userService) UpdatePassword(ctx context.Context, id uint, newPassword, currentPassword string) (err error) {
	defer func() { metrics.ObserveUserOperation("update_password", err) }()

	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.Password, currentPassword); err != nil {
		return apperrors.ErrInvalidCredential
	}
	if newPassword == "" {
		return apperrors.ErrPasswordRequired
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *userService) FindAll(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.User, 0, len(users))
	for i := range users {
		out = append(out, *users[i].WithoutPassword())
	}
	return out, nil
}

func (s *userService) FindOne(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.WithoutPassword(), nil
}

func (s *userService) FindOneByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *userService) Remove(ctx context.Context, id uint) (err error) {
	defer func() { metrics.ObserveUserOperation("remove", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}

func (s *userService) hash(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperrors.ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// find loads the full record, hash included.
func (s *userService) find(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
