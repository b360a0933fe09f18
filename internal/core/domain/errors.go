package domain

import (
	"errors"
	"sort"
	"strings"
)

// Input and authentication errors.
var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailNotVerified     = errors.New("please verify your email first")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrForbidden            = errors.New("access forbidden")
)

// Lookup errors.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrPatientNotFound        = errors.New("patient not found")
	ErrDoctorNotFound         = errors.New("doctor not found")
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrTestResultNotFound     = errors.New("test result not found")
	ErrReferralNotFound       = errors.New("referral not found")
	ErrRecommendationNotFound = errors.New("test recommendation not found")
)

// Conflict errors.
var (
	ErrDuplicateEmail    = errors.New("email is already registered")
	ErrDuplicateProfile  = errors.New("profile already exists")
	ErrAlreadyVerified   = errors.New("email is already verified")
	ErrSlotTaken         = errors.New("time slot is already booked")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSelfDelete        = errors.New("you cannot delete your own account")
)

// ErrUpstreamUnavailable marks failures talking to a sibling service.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

// ValidationError carries field-level messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
