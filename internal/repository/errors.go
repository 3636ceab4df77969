// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on someone else's resource, while ErrConflict
// signals that an operation cannot proceed because of existing state
// (e.g. changing the status of an order that is already terminal).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as moving a delivered or cancelled order
// to another status. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrActiveDiscountExists is returned by the redemption path when the
// user already holds an unconsumed discount. At most one active
// discount per user may exist at any time.
var ErrActiveDiscountExists = errors.New("active discount already exists")

// ErrInsufficientPoints is returned when a redemption would drive the
// points balance negative.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrAlreadyConsumed is returned when a discount consume hits a row
// that was consumed before; it protects against linking one discount
// to two orders on a retried call.
var ErrAlreadyConsumed = errors.New("discount already consumed")
