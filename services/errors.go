package services

import "errors"

// Ошибки сервисного слоя, маппятся на HTTP-статусы в handlers.
var (
	// Not found
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPrizeNotFound       = errors.New("prize not found")
	ErrWinnerNotFound      = errors.New("winner record not found")

	// Validation / bad input
	ErrParticipantNameRequired = errors.New("participant name is required")
	ErrExternalIDRequired      = errors.New("participant external id is required")
	ErrPrizeNameRequired       = errors.New("prize name is required")
	ErrQuotaInvalid            = errors.New("prize quota must not be negative")
	ErrDrawCountInvalid        = errors.New("draw count must be positive")
	ErrNoWinnersGiven          = errors.New("at least one winner must be given")

	// Conflicts / business rules
	ErrExternalIDConflict       = errors.New("external id is already registered")
	ErrPrizeNameConflict        = errors.New("prize name already exists")
	ErrInsufficientQuota        = errors.New("not enough quota for this prize")
	ErrInsufficientParticipants = errors.New("not enough eligible participants")
	ErrParticipantAlreadyWinner = errors.New("participant is already a winner")
	ErrPrizeHasWinners          = errors.New("prize cannot be deleted while winner records reference it")
	ErrQuotaBelowAwarded        = errors.New("quota cannot drop below the number of prizes already awarded")

	// Auth
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Fatal configuration: the sequence counter row is provisioned by the
	// schema bootstrap and must never be missing at check-in time.
	ErrSequenceCounterMissing = errors.New("check-in sequence counter row is missing")
)
