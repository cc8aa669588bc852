package errors

import "errors"

var (
	ErrSummaryUnavailable = errors.New("order summary unavailable")
	ErrCancelFailed       = errors.New("cancel pending payment failed")
	ErrRepayRejected      = errors.New("repayment rejected")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrStockExceeded      = errors.New("stock exceeded")
	ErrNoActiveSession    = errors.New("no active checkout session")
	ErrNotRepayable       = errors.New("order is not repayable")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidDraft       = errors.New("invalid checkout draft")
)
