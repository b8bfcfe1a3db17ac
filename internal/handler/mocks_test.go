package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"usermanager/internal/model"
	"usermanager/internal/policy"
	"usermanager/internal/service"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, in service.CreateUserInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uint, in service.UpdateUserInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdatePassword(ctx context.Context, id uint, newPassword, currentPassword string) error {
	return m.Called(ctx, id, newPassword, currentPassword).Error(0)
}

func (m *MockUserService) FindAll(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) FindOne(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) FindOneByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Remove(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) LoginWithJWT(ctx context.Context, token string) (*service.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*service.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Principal), args.Error(1)
}

var (
	adminPrincipal = &service.Principal{ID: 1, Email: "admin@email.com", Role: model.RoleAdmin}
	userPrincipal  = &service.Principal{ID: 2, Email: "joao@email.com", Role: model.RoleUser}
)

// newTestEcho builds an echo instance with the production validator and error
// handler. A non-nil principal is injected ahead of every route.
func newTestEcho(principal *service.Principal) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	if principal != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(policy.PrincipalKey, principal)
				return next(c)
			}
		})
	}
	return e
}

func registerUserRoutes(e *echo.Echo, h *UserHandler, policies *policy.Registry) {
	e.POST("/users", h.CreateUser, policies.Middleware(policy.OpCreateUser, policy.Collection))
	e.GET("/users", h.ListUsers, policies.Middleware(policy.OpListUsers, policy.Collection))
	e.GET("/users/:id", h.GetUser, policies.Middleware(policy.OpReadUser, policy.PathID))
	e.PATCH("/users/:id", h.UpdateUser, policies.Middleware(policy.OpUpdateUser, policy.PathID))
	e.PATCH("/users/:id/password", h.UpdatePassword, policies.Middleware(policy.OpUpdatePassword, policy.PathID))
	e.DELETE("/users/:id", h.DeleteUser, policies.Middleware(policy.OpRemoveUser, policy.PathID))
}

func do(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
