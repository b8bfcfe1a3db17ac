package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"usermanager/internal/model"
	"usermanager/internal/policy"
	"usermanager/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc      service.UserService
	policies *policy.Registry
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, policies *policy.Registry) *UserHandler {
	return &UserHandler{svc: svc, policies: policies}
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,max=72"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// UpdateUserRequest is the body of PATCH /users/:id. Absent fields are left
// untouched.
type UpdateUserRequest struct {
	Name  *string     `json:"name" validate:"omitempty,min=1"`
	Email *string     `json:"email" validate:"omitempty,email"`
	Role  *model.Role `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// UpdatePasswordRequest is the body of PATCH /users/:id/password.
type UpdatePasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
}

// CreateUser godoc
// @Summary Create user
// @Description Guests may sign up with the USER role; other roles need an admin token.
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Role != "" && req.Role != model.RoleUser {
		if err := h.policies.Check(policy.OpAssignRole, policy.AbilityFrom(c), nil); err != nil {
			return err
		}
	}

	created, err := h.svc.Create(c.Request().Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	target := policy.TargetFrom(c)
	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Role != nil {
		if err := h.policies.Check(policy.OpAssignRole, policy.AbilityFrom(c), target); err != nil {
			return err
		}
	}

	updated, err := h.svc.Update(c.Request().Context(), target.ID, service.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdatePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body UpdatePasswordRequest true "New and current password"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/password [patch]
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	target := policy.TargetFrom(c)
	var req UpdatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.UpdatePassword(c.Request().Context(), target.ID, req.NewPassword, req.CurrentPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.svc.FindOne(c.Request().Context(), policy.TargetFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.svc.Remove(c.Request().Context(), policy.TargetFrom(c).ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
