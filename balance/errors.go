package balance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when a reservation or request check
	// exceeds the available quantity and negative balances are disallowed.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned for zero or negative day amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InsufficientBalanceError carries the shortfall details.
type InsufficientBalanceError struct {
	EmployeeID string
	Year       int
	Requested  decimal.Decimal
	Available  decimal.Decimal
	// Check names which guard failed: "remaining" for immediate requests,
	// "available_for_planning" for schedule reservations.
	Check string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%d: requested %s, %s is %s",
		e.EmployeeID, e.Year, e.Requested, e.Check, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }
