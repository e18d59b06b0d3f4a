package email

import (
	"errors"
	"fmt"
)

var ErrUnknownTransport = errors.New("unknown mail transport")

type ErrDisabled struct{}

func (e ErrDisabled) Error() string { return "email is disabled" }

type ErrInvalidMessage struct{ Reason string }

func (e ErrInvalidMessage) Error() string { return "invalid email message: " + e.Reason }

type ErrSend struct {
	Provider string
	Err      error
}

func (e ErrSend) Error() string { return fmt.Sprintf("email send failed (%s): %v", e.Provider, e.Err) }
func (e ErrSend) Unwrap() error { return e.Err }

// ErrExhausted is returned once every attempt has failed. Err is the last failure.
type ErrExhausted struct {
	Attempts int
	Err      error
}

func (e ErrExhausted) Error() string {
	return fmt.Sprintf("email not sent after %d attempts: %v", e.Attempts, e.Err)
}
func (e ErrExhausted) Unwrap() error { return e.Err }
