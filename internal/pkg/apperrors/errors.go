package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrNotFound = errors.New("resource not found")

	// Authentication errors
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrInvalidFormat   = errors.New("invalid token format")
	ErrAccountDisabled = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidRole      = errors.New("actor does not hold the role required for this action")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// Organizational errors
var (
	ErrCollegeNotAssigned   = errors.New("community is not assigned to a college")
	ErrUnresolvedCollege    = errors.New("no college can be determined for event")
	ErrCollegeAlreadyExists = errors.New("college with this code already exists")
	ErrCommunityNameTaken   = errors.New("community with this name already exists")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrAlreadyMember        = errors.New("user is already a member of this community")
	ErrDuplicateApplication = errors.New("a pending application already exists for this user and community")
)

// Approval errors
var (
	// ErrAmbiguousApprover is an operational misconfiguration: more than one active
	// user holds a scoped approval role. It is reported, never resolved by picking one.
	ErrAmbiguousApprover = errors.New("more than one user holds the approval role for this scope")
	// ErrStageBlocked means the current stage has no resolvable approver. The event
	// stays at that stage until one is assigned.
	ErrStageBlocked      = errors.New("approval stage has no assigned approver")
	ErrInvalidTransition = errors.New("transition not allowed from the current state")
	ErrStaleState        = errors.New("record was modified concurrently")
)

// Reservation errors
var (
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrDuplicateReservation = errors.New("student already holds an active reservation for this space and date")
	ErrStudySpaceNameTaken  = errors.New("study space with this name already exists")
)

// NewNotFoundError creates a new custom error for resource not found with a message
func NewNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a validation failure carrying a field-level message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
