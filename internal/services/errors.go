package services

import "errors"

// Business-rule errors. Handlers map these to 4xx codes; anything else
// propagates as a 500 and the caller retries the whole request.
var (
	ErrNotFound            = errors.New("not found")
	ErrNoItems             = errors.New("at least one item is required")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrAlreadyVoid         = errors.New("transaction is already voided")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrInvalidPayment      = errors.New("invalid payment method")
)

// ErrorCode returns the wire code for a business error, or "" if the error
// is not a recognized business rejection.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrInsufficientPayment):
		return "INSUFFICIENT_PAYMENT"
	case errors.Is(err, ErrEmptyCart):
		return "EMPTY_CART"
	case errors.Is(err, ErrAlreadyVoid):
		return "ALREADY_VOID"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrNoItems), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPayment):
		return "VALIDATION"
	}
	return ""
}
