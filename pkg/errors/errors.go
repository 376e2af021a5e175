package errors

import (
	"errors"
	"fmt"
)

// Domain errors for the cross-site reward system
var (
	ErrAuthentication      = errors.New("authentication failed")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrRemoteUnavailable   = errors.New("remote site unavailable")
	ErrNotConfigured       = errors.New("not configured")
	ErrAlreadyIssued       = errors.New("reward already issued for this line item")
	ErrIssuanceInProgress  = errors.New("reward issuance already in progress")
	ErrCacheMiss           = errors.New("remote product list not loaded")
	ErrProductNotFound     = errors.New("product not found")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponAlreadyExists = errors.New("coupon already exists")
	ErrOrderNotFound       = errors.New("order not found")
	ErrMappingNotFound     = errors.New("reward mapping not found")
)

// RemoteError describes a non-successful answer from the peer site.
// Err is one of ErrAuthentication, ErrInvalidRequest or ErrRemoteUnavailable.
type RemoteError struct {
	Status int
	Code   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: status %d (%s)", e.Err, e.Status, e.Code)
	}
	return fmt.Sprintf("%v: status %d", e.Err, e.Status)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is, As and New are re-exported so callers only need one errors import.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
