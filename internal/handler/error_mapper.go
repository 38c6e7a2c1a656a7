package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/forgo/shiftboard/api/internal/middleware"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Unknown errors become a 500 without leaking their text.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var full *service.ShiftFullError
	if errors.As(err, &full) {
		return model.NewShiftFullError(full.Capacity, full.Confirmed)
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrParentalConsentRequired):
		return model.NewConsentRequiredError(err.Error())
	case errors.Is(err, service.ErrCannotDeleteSelf),
		errors.Is(err, service.ErrCannotDemoteSelf):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrShiftNotFound):
		return model.NewNotFoundError("shift")
	case errors.Is(err, service.ErrShiftTypeNotFound):
		return model.NewNotFoundError("shift type")
	case errors.Is(err, service.ErrSignupNotFound):
		return model.NewNotFoundError("signup")
	case errors.Is(err, service.ErrTemplateNotFound):
		return model.NewNotFoundError("shift template")
	case errors.Is(err, service.ErrRuleNotFound):
		return model.NewNotFoundError("auto-accept rule")
	case errors.Is(err, service.ErrRegularNotFound):
		return model.NewNotFoundError("regular schedule")
	case errors.Is(err, service.ErrNotificationNotFound):
		return model.NewNotFoundError("notification")

	// ===== Closed Shifts → 409 =====
	case errors.Is(err, service.ErrShiftCanceled),
		errors.Is(err, service.ErrShiftInPast):
		return model.NewShiftClosedError(err.Error())

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrShiftTypeExists),
		errors.Is(err, service.ErrShiftTypeInUse),
		errors.Is(err, service.ErrShiftHasSignups),
		errors.Is(err, service.ErrCapacityBelowConfirmed),
		errors.Is(err, service.ErrShiftFull),
		errors.Is(err, service.ErrAlreadySignedUp),
		errors.Is(err, service.ErrSignupConflict),
		errors.Is(err, service.ErrTemplateNameExists),
		errors.Is(err, service.ErrRuleNameExists),
		errors.Is(err, service.ErrRegularExists):
		return model.NewConflictError(err.Error())

	// ===== State Errors → 422 =====
	case errors.Is(err, service.ErrInvalidSignupTransition),
		errors.Is(err, service.ErrShiftNotStarted),
		errors.Is(err, service.ErrNotFlexibleSignup),
		errors.Is(err, service.ErrSameShift),
		errors.Is(err, service.ErrTemplateInactive),
		errors.Is(err, service.ErrConsentNotRequired),
		errors.Is(err, service.ErrConsentNotPending):
		return model.NewValidationError([]model.FieldError{{Field: "state", Message: err.Error()}})

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "credentials", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidDateOfBirth),
		errors.Is(err, service.ErrDateOfBirthLocked):
		return model.NewValidationError([]model.FieldError{{Field: "date_of_birth", Message: err.Error()}})
	case errors.Is(err, service.ErrUnknownLocation):
		return model.NewValidationError([]model.FieldError{{Field: "location", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidShiftTimes):
		return model.NewValidationError([]model.FieldError{{Field: "ends_at", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidPlacementTarget):
		return model.NewValidationError([]model.FieldError{{Field: "shift_id", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidRole):
		return model.NewValidationError([]model.FieldError{{Field: "role", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidGrade):
		return model.NewValidationError([]model.FieldError{{Field: "grade", Message: err.Error()}})
	case errors.Is(err, service.ErrDateRangeTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "to", Message: err.Error()}})

	// Limit errors → 422
	case errors.Is(err, service.ErrMaxRulesReached):
		return model.NewLimitExceededError("auto-accept rules", model.MaxRulesTotal, model.MaxRulesTotal)

	// ===== Bad Input → 400 =====
	case errors.Is(err, service.ErrInvalidSpreadsheet),
		errors.Is(err, service.ErrInvalidRulesFile):
		return model.NewBadRequestError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// writeServiceError writes the mapped problem response and logs anything
// that mapped to a server error
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	pd := MapServiceError(err)
	if pd.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.Any("error", err),
		)
	}
	WriteError(w, pd)
}
