package services

import "errors"

// Errors surfaced by the wager transaction engine. Handlers map these to 400s;
// anything else that escapes a store call is a 500.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotActive    = errors.New("match is not active")
	ErrNotWinner         = errors.New("caller is not the recorded winner")
	ErrResultPending     = errors.New("match result has not been declared")
	ErrResultDeclared    = errors.New("match result already declared")

	// ErrTxConflict means the optimistic transaction kept colliding with
	// concurrent writers after all retries. It is a transient store-level
	// condition, not a caller error.
	ErrTxConflict = errors.New("transaction conflict, retries exhausted")
)

// IsValidationError reports whether err is a caller-correctable rejection
// rather than a store failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrMatchNotActive) ||
		errors.Is(err, ErrNotWinner) ||
		errors.Is(err, ErrResultPending) ||
		errors.Is(err, ErrResultDeclared)
}
