package policy

import (
	apperrors "usermanager/internal/errors"
	"usermanager/internal/metrics"
	"usermanager/internal/model"
)

// Operation ids.
const (
	OpCreateUser     = "users.create"
	OpAssignRole     = "users.assign_role"
	OpListUsers      = "users.list"
	OpReadUser       = "users.read"
	OpUpdateUser     = "users.update"
	OpUpdatePassword = "users.update_password"
	OpRemoveUser     = "users.remove"
)

// Handler is a predicate evaluated before an operation runs.
type Handler func(a Ability, target *model.User) bool

// Can returns a handler that requires action on the target.
func Can(action Action) Handler {
	return func(a Ability, target *model.User) bool {
		return a.Can(action, target)
	}
}

// Authenticated returns a handler that rejects guests.
func Authenticated() Handler {
	return func(a Ability, _ *model.User) bool {
		return a.Authenticated()
	}
}

// Registry maps operation ids to their ordered handler lists.
type Registry struct {
	handlers map[string][]Handler
}

// NewRegistry returns an empty registry. Unregistered operations are denied.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Handler)}
}

// DefaultRegistry returns the policy table for the user API.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(OpCreateUser, Can(ActionCreate)).
		Register(OpAssignRole, Authenticated(), Can(ActionAssignRole)).
		Register(OpListUsers, Authenticated(), Can(ActionRead)).
		Register(OpReadUser, Authenticated(), Can(ActionRead)).
		Register(OpUpdateUser, Authenticated(), Can(ActionUpdate)).
		Register(OpUpdatePassword, Authenticated(), Can(ActionChangePassword)).
		Register(OpRemoveUser, Authenticated(), Can(ActionDelete))
}

// Register appends handlers to op and returns the registry for chaining.
func (r *Registry) Register(op string, handlers ...Handler) *Registry {
	r.handlers[op] = append(r.handlers[op], handlers...)
	return r
}

// Check runs the handlers of op in order and returns ErrForbidden on the first
// one that fails.
func (r *Registry) Check(op string, a Ability, target *model.User) error {
	handlers, ok := r.handlers[op]
	if !ok || len(handlers) == 0 {
		metrics.PolicyDenialsTotal.WithLabelValues(op).Inc()
		return apperrors.ErrForbidden
	}
	for _, h := range handlers {
		if !h(a, target) {
			metrics.PolicyDenialsTotal.WithLabelValues(op).Inc()
			return apperrors.ErrForbidden
		}
	}
	return nil
}
