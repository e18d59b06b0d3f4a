package subscription

import "errors"

var (
	ErrInvalidLink = errors.New("invalid unsubscribe link")
	ErrNoEmail     = errors.New("email address is required")
)
