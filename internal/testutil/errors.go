package testutil

import "errors"

// ErrInjected is returned by fakes to drive failure paths.
var ErrInjected = errors.New("injected failure")
