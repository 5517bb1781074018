package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	// Match lifecycle
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchImmutable          = errors.New("match is finalized and can no longer be modified")
	ErrFieldLocked             = errors.New("field is locked in the current match status")
	ErrInvalidStatus           = errors.New("invalid match status provided")
	ErrInvalidStatusTransition = errors.New("invalid match status transition")
	ErrGoalsRequired           = errors.New("goal counts are required for this match status")
	ErrGroupNameRequired       = errors.New("group name is required for a group-stage match")
	ErrGroupNameNotAllowed     = errors.New("group name is only allowed for group-stage matches")

	// Final-phase declaration
	ErrFinalDeclarationRequired = errors.New("finalizing the final requires champion and runner-up")
	ErrInvalidFinalDeclaration  = errors.New("champion and runner-up must be the two distinct finalists")

	// Predictions and scoring
	ErrPredictionsLocked = errors.New("predictions are locked once the match has started")
	ErrFinalizeFailed    = errors.New("match finalize failed and was rolled back")
	ErrMatchNotFinalized = errors.New("match is not finalized yet")

	// Validation and business rules
	ErrValidationFailed  = errors.New("validation failed")
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrInvalidFinalPicks = errors.New("champion and runner-up picks must be two different teams")
	ErrCareerInvalid     = errors.New("career does not exist")

	// Authentication
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")

	// Entity lookups
	ErrUserNotFound  = errors.New("user not found")
	ErrTeamNotFound  = errors.New("team not found")
	ErrPhaseNotFound = errors.New("phase not found")

	// Avatars
	ErrAvatarStorageUnavailable = errors.New("avatar storage is not configured")
	ErrUnsupportedAvatarType    = errors.New("unsupported avatar content type")
)
