package clearing

import "errors"

// Expected no-trade outcomes (ineligible pair, zero size, margin breach) are
// NOT errors: they surface as a zero-size fill with a nil error. The errors
// below split into invalid input (recoverable by the caller) and fatal
// arithmetic/curve failures (abort the invocation, host rolls back).
var (
	// Invalid input.
	ErrOrderNotOpen        = errors.New("order is not open")
	ErrOrderIndexOutOfRange = errors.New("order index out of range")
	ErrMarketIndexMismatch = errors.New("order market index does not match market")
	ErrMakerNotPostOnly    = errors.New("maker order must be post-only")
	ErrMarketNotInitialized = errors.New("market not initialized")

	// Fatal arithmetic / curve failures.
	ErrMathOverflow       = errors.New("fixed-point arithmetic overflow")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrInvalidAMMReserves = errors.New("amm reserves produced a non-positive output")

	// Borrow-guarded map failures.
	ErrAccountNotFound = errors.New("account not found in map")
	ErrAccountBorrowed = errors.New("account already mutably borrowed")
)
