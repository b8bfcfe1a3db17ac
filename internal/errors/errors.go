package errors

import (
	"errors"
	"net/http"
)

// User-facing messages are part of the API contract; clients match on them.
var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("Usuário não encontrado")
	// ErrDuplicateEmail is returned when another user already owns the email.
	ErrDuplicateEmail = errors.New("E-mail já cadastrado.")
	// ErrEmptyUpdate is returned when an update carries no recognized field.
	ErrEmptyUpdate = errors.New("Nenhum campo para atualizar.")
	// ErrInvalidCredential is returned when the current password does not match.
	ErrInvalidCredential = errors.New("Senha atual incorreta.")
	// ErrNameRequired is returned when a user would end up without a name.
	ErrNameRequired = errors.New("Nome é obrigatório.")
	// ErrEmailRequired is returned when an email is empty.
	ErrEmailRequired = errors.New("E-mail é obrigatório.")
	// ErrPasswordRequired is returned when a password is empty.
	ErrPasswordRequired = errors.New("Senha é obrigatória.")
	// ErrInvalidRole is returned for roles outside USER and ADMIN.
	ErrInvalidRole = errors.New("Perfil inválido.")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("Senha deve ter no máximo 72 bytes.")

	// ErrIncorrectPassword is returned by login on a password mismatch.
	ErrIncorrectPassword = errors.New("Senha incorreta.")
	// ErrInvalidToken covers bad signatures, malformed and expired tokens alike.
	ErrInvalidToken = errors.New("Token inválido ou expirado.")
	// ErrLoginFailed replaces any unexpected failure inside login.
	ErrLoginFailed = errors.New("Falha no login.")
	// ErrMissingToken is returned when a secured route gets no bearer token.
	ErrMissingToken = errors.New("Token de acesso ausente.")

	// ErrForbidden is returned when a policy handler denies the operation.
	ErrForbidden = errors.New("Acesso negado.")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// IsUnauthorized reports whether err belongs to the Unauthorized kind.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrIncorrectPassword) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrLoginFailed) ||
		errors.Is(err, ErrMissingToken)
}

// IsValidation reports whether err is a required-field or enum violation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooLong) ||
		errors.Is(err, ErrInvalidRole)
}

// MapErrorToHTTP maps domain errors to HTTP errors. The second result is false
// for errors outside the taxonomy, which render as a generic 500.
func MapErrorToHTTP(err error) (*HTTPError, bool) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND"), true
	case errors.Is(err, ErrDuplicateEmail):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateEmail.Error(), "DUPLICATE_EMAIL"), true
	case errors.Is(err, ErrEmptyUpdate):
		return NewHTTPError(http.StatusBadRequest, ErrEmptyUpdate.Error(), "EMPTY_UPDATE"), true
	case errors.Is(err, ErrInvalidCredential):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredential.Error(), "INVALID_CREDENTIAL"), true
	case IsValidation(err):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_FAILED"), true
	case IsUnauthorized(err):
		return NewHTTPError(http.StatusUnauthorized, unauthorizedMessage(err), "UNAUTHORIZED"), true
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN"), true
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR"), false
	}
}

func unauthorizedMessage(err error) string {
	for _, known := range []error{ErrIncorrectPassword, ErrInvalidToken, ErrLoginFailed, ErrMissingToken} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrLoginFailed.Error()
}
