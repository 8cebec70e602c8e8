// Package apperr defines the domain error taxonomy shared by every usecase.
// Errors carry a kind (how the caller should react) and an i18n message id.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConsistency // balance rule violated, hard stop
	KindConflict    // retry with fresh state, or identity collision
	KindForbidden
)

type Error struct {
	Kind      Kind
	Code      string
	MessageID string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so a wrapped copy still satisfies errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newSentinel(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code, MessageID: code}
}

var (
	ErrVendorNotFound         = newSentinel(KindNotFound, "vendor_not_found")
	ErrPartnerNotFound        = newSentinel(KindNotFound, "partner_not_found")
	ErrProductNotFound        = newSentinel(KindNotFound, "product_not_found")
	ErrInvalidAmount          = newSentinel(KindValidation, "invalid_amount")
	ErrInvalidTransactionType = newSentinel(KindValidation, "invalid_transaction_type")
	ErrInvalidInput           = newSentinel(KindValidation, "invalid_input")
	ErrInsufficientCapital    = newSentinel(KindConsistency, "insufficient_capital")
	ErrInsufficientStock      = newSentinel(KindConsistency, "insufficient_stock")
	ErrVendorHasEquity        = newSentinel(KindConsistency, "vendor_has_equity")
	ErrNoPendingPayables      = newSentinel(KindConsistency, "no_pending_payables")
	ErrConcurrentUpdate       = newSentinel(KindConflict, "concurrent_update")
	ErrDuplicateAccount       = newSentinel(KindConflict, "duplicate_account")
	ErrDuplicatePartner       = newSentinel(KindConflict, "duplicate_partner")
	ErrDuplicateVendor        = newSentinel(KindConflict, "duplicate_vendor")
	ErrAlreadyApplied         = newSentinel(KindConflict, "already_applied")
	ErrForbidden              = newSentinel(KindForbidden, "forbidden")
)

// Wrap attaches detail to a sentinel while keeping errors.Is working.
func Wrap(sentinel *Error, err error) error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, MessageID: sentinel.MessageID, Err: err}
}

// Wrapf is Wrap with a formatted detail message.
func Wrapf(sentinel *Error, format string, args ...interface{}) error {
	return Wrap(sentinel, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller should retry with fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}
