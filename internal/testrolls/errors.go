package testrolls

import "errors"

// ErrVerification is returned when the service answered but broke a contract.
var ErrVerification = errors.New("roll verification failed")
