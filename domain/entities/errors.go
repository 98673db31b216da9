package entities

import (
	"errors"
)

// Input validation errors. Rejected before any mutation.
var (
	ErrInvalidOptionCount = errors.New("events require between 2 and 10 outcome options")
	ErrDuplicateOption    = errors.New("outcome options must be unique")
	ErrEmptyOption        = errors.New("outcome options cannot be empty")
	ErrInvalidOption      = errors.New("option is not one of the event's outcome options")
	ErrBelowMinimum       = errors.New("stake amount is below the minimum")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidSchedule    = errors.New("event schedule is invalid")
)

// State-conflict errors. The caller acted on stale state; no mutation occurs.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrEvidenceNotFound     = errors.New("evidence not found")
	ErrEventNotOpen         = errors.New("event is not open")
	ErrStakeWindowClosed    = errors.New("stake window has closed")
	ErrInvalidWinningOption = errors.New("winning option is not one of the event's outcome options")
	ErrAlreadyTerminal      = errors.New("event is already resolved or cancelled")
	ErrNotAuthorized        = errors.New("user is not authorized for this action")
)

// Evidence gate errors.
var (
	ErrEvidenceTooEarly     = errors.New("evidence window has not opened yet")
	ErrNotCreatorWindow     = errors.New("only the event creator may submit evidence during the creator window")
	ErrCreatorWindowExpired = errors.New("creator evidence window has expired")
	ErrEventClosed          = errors.New("event no longer accepts evidence")
)

// Resource errors.
var (
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrPoolTooLarge      = errors.New("pool exceeds the settleable range")
)

// ErrInvariantViolation marks states that legitimate operation sequences can
// never produce. It aborts the surrounding transaction and surfaces as an
// internal error, never as user feedback.
var ErrInvariantViolation = errors.New("wallet invariant violation")
