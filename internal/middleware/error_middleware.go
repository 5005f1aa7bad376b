package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/logger"
)

// errorMapping is one row of the error-to-HTTP table
type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// apiErrors is matched in order; the first errors.Is hit wins
var apiErrors = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	{apperrors.ErrStaleState, http.StatusConflict, dto.ErrorCodeStaleState, "The record was modified concurrently, reload and retry"},
	{apperrors.ErrCapacityExceeded, http.StatusConflict, dto.ErrorCodeCapacityExceeded, "Capacity exceeded"},
	{apperrors.ErrDuplicateReservation, http.StatusConflict, dto.ErrorCodeDuplicateReservation, "A reservation already exists for this space and date"},
	{apperrors.ErrDuplicateApplication, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "A pending application already exists"},
	{apperrors.ErrAlreadyMember, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "User is already a member"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrCollegeAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "College code already exists"},
	{apperrors.ErrCommunityNameTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Community name already taken"},
	{apperrors.ErrStudySpaceNameTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Study space name already taken"},
	{apperrors.ErrAmbiguousApprover, http.StatusConflict, dto.ErrorCodeAmbiguousApprover, "More than one user holds the approval role for this scope"},

	{apperrors.ErrUnresolvedCollege, http.StatusUnprocessableEntity, dto.ErrorCodeUnresolvedCollege, "No college can be determined for this event"},
	{apperrors.ErrCollegeNotAssigned, http.StatusUnprocessableEntity, dto.ErrorCodeUnresolvedCollege, "Community is not assigned to a college"},
	{apperrors.ErrStageBlocked, http.StatusUnprocessableEntity, dto.ErrorCodeStageBlocked, "The current approval stage has no approver"},
	{apperrors.ErrInvalidTransition, http.StatusUnprocessableEntity, dto.ErrorCodeInvalidTransition, "Transition not allowed from the current state"},

	{apperrors.ErrInvalidRole, http.StatusForbidden, dto.ErrorCodeInvalidRole, "Actor is not the required approver"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeForbidden, "Account is disabled"},

	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},

	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token format"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range apiErrors {
		if !errors.Is(err, m.target) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, m.message)
		var customErr *apperrors.CustomError
		if errors.As(err, &customErr) {
			if customErr.Message != "" {
				detail.Message = customErr.Message
			}
			if customErr.Details != nil {
				detail = detail.WithDetails(customErr.Details)
			}
		} else if m.status != http.StatusNotFound {
			detail = detail.WithDetails(err.Error())
		}

		if m.status >= http.StatusInternalServerError || m.target == apperrors.ErrAmbiguousApprover {
			logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
}
