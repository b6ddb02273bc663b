package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrQuoteNotOpen     = errors.New("quote is not open for a response")
	ErrNoBillableWork   = errors.New("no billable work orders for selected period")
)
