package policy

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"usermanager/internal/model"
	"usermanager/internal/service"
)

const (
	// PrincipalKey is the echo context key the bearer middleware stores the
	// authenticated *service.Principal under.
	PrincipalKey = "principal"
	abilityKey   = "ability"
	targetKey    = "policy.target"
)

// TargetLoader resolves the record an operation acts on. Returning a nil user
// means the operation targets the collection.
type TargetLoader func(c echo.Context) (*model.User, error)

// Collection is the loader for operations without a single target.
func Collection(echo.Context) (*model.User, error) {
	return nil, nil
}

// PathID builds a target from the numeric :id path parameter.
func PathID(c echo.Context) (*model.User, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return &model.User{ID: uint(id)}, nil
}

// Middleware checks op before the wrapped handler runs. The ability derived
// for the request is kept on the context for follow-up checks.
func (r *Registry) Middleware(op string, load TargetLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			target, err := load(c)
			if err != nil {
				return err
			}
			ability := AbilityFrom(c)
			if err := r.Check(op, ability, target); err != nil {
				return err
			}
			c.Set(targetKey, target)
			return next(c)
		}
	}
}

// TargetFrom returns the target checked by Middleware, nil for collections.
func TargetFrom(c echo.Context) *model.User {
	u, _ := c.Get(targetKey).(*model.User)
	return u
}

// PrincipalFrom returns the authenticated principal, or nil for guests.
func PrincipalFrom(c echo.Context) *service.Principal {
	p, _ := c.Get(PrincipalKey).(*service.Principal)
	return p
}

// AbilityFrom returns the request's ability, deriving and caching it on first use.
func AbilityFrom(c echo.Context) Ability {
	if a, ok := c.Get(abilityKey).(Ability); ok {
		return a
	}
	a := AbilityFor(PrincipalFrom(c))
	c.Set(abilityKey, a)
	return a
}
