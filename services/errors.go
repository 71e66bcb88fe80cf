package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletExists      = errors.New("wallet already exists for this restaurant")
	ErrWalletInactive    = errors.New("wallet is not active")
	ErrCartNotActive     = errors.New("cart is not active")
	ErrCartEmpty         = errors.New("cart is empty, nothing to checkout")
	ErrAlreadyCompleted  = errors.New("payment already completed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError carries a user-facing message for a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ReconciliationFault marks money-already-captured states that need an
// operator: a COMPLETED checkout without an order, a webhook for an unknown
// transaction. Never retried automatically.
type ReconciliationFault struct {
	Reason string
	TxRef  string
	Err    error
}

func (f *ReconciliationFault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("reconciliation fault (%s, txRef=%s): %v", f.Reason, f.TxRef, f.Err)
	}
	return fmt.Sprintf("reconciliation fault (%s, txRef=%s)", f.Reason, f.TxRef)
}

func (f *ReconciliationFault) Unwrap() error { return f.Err }
