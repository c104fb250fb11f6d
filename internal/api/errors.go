package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// Client-facing messages for mapped errors.
const (
	MsgTaskNotFound        = "Task not found"
	MsgUserNotFound        = "User not found"
	MsgInvalidToken        = "Invalid token"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgEmailExists         = "Email already exists"
	MsgInvalidID           = "Invalid ID"
	MsgInvalidRequest      = "Invalid request format"
	MsgValidationFailed    = "Validation failed"
	MsgInvalidEntity       = "Invalid entity data"
	MsgUnexpectedError     = "An unexpected error occurred"
	MsgUnauthorized        = "User ID not found or invalid"
	MsgAuthHeaderRequired  = "Authorization header required"
	MsgInvalidAuthFormat   = "Invalid authorization format"
	MsgTokenExpired        = "Token expired"
	MsgAuthenticationError = "Authentication error"
)

// MapErrorToStatusCode maps service, store and auth errors to HTTP status
// codes. Ownership failures report 404 so task existence is not disclosed.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrNotOwned),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err. Validation and
// transition errors carry their rule text; everything unexpected collapses
// to a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return MsgUnexpectedError
	}

	var validationErr *domain.ValidationError
	var transitionErr *domain.InvalidTransitionError

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return MsgInvalidToken

	case errors.Is(err, service.ErrInvalidCredentials):
		return MsgInvalidCredentials

	case errors.Is(err, domain.ErrUnauthorized):
		return MsgUnauthorized

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrNotOwned),
		errors.Is(err, store.ErrTaskNotFound):
		return MsgTaskNotFound

	case errors.Is(err, store.ErrUserNotFound):
		return MsgUserNotFound

	case errors.As(err, &transitionErr):
		return transitionErr.Error()

	case errors.Is(err, domain.ErrInvalidTransition):
		return domain.ErrInvalidTransition.Error()

	case errors.Is(err, store.ErrEmailExists):
		return MsgEmailExists

	case errors.As(err, &validationErr):
		return validationErr.Message

	case errors.Is(err, domain.ErrInvalidID):
		return MsgInvalidID

	case errors.Is(err, domain.ErrValidation):
		return MsgValidationFailed

	case errors.Is(err, shared.ErrEmptyBody):
		return MsgInvalidRequest

	case errors.Is(err, store.ErrInvalidEntity):
		return MsgInvalidEntity

	default:
		return MsgUnexpectedError
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted error. defaultMsg, when non-empty, replaces the generic
// message on 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		msg = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}

// SanitizeValidationError turns a request DTO validation failure into a
// message naming the first offending JSON field, without struct internals.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgValidationFailed
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
