package session

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New("session manager closed")

// AuthError is returned by the user-initiated auth operations (sign-up,
// sign-in, sign-out) when the data store rejects the call.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ProfileUpdateError is returned by UpdateProfile when the remote update fails.
type ProfileUpdateError struct {
	Err error
}

func (e *ProfileUpdateError) Error() string {
	return fmt.Sprintf("update profile: %v", e.Err)
}

func (e *ProfileUpdateError) Unwrap() error {
	return e.Err
}
