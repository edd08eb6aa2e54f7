package center

import (
	"errors"
	"fmt"
)

// Center errors.
var (
	ErrUnregisteredApplication = errors.New("application is not registered")
	ErrClosed                  = errors.New("notification center is closed")
	ErrNilRecord               = errors.New("record cannot be nil")
)

// UnregisteredApplicationError is returned by Present when the application
// identifier has not been registered. Nothing is enqueued.
type UnregisteredApplicationError struct {
	ApplicationID string
}

func (e *UnregisteredApplicationError) Error() string {
	return fmt.Sprintf("application %q is not registered", e.ApplicationID)
}

// Is makes errors.Is(err, ErrUnregisteredApplication) match.
func (e *UnregisteredApplicationError) Is(target error) bool {
	return target == ErrUnregisteredApplication
}
