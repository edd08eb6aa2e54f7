package dbus

import (
	"errors"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/model"
)

// D-Bus error names returned by the control service.
const (
	ErrorUnregisteredApplication = DBusInterface + ".Error.UnregisteredApplication"
	ErrorInvalidArgument         = DBusInterface + ".Error.InvalidArgument"
	ErrorClosed                  = DBusInterface + ".Error.Closed"
	ErrorFailed                  = DBusInterface + ".Error.Failed"
)

// toDBusError maps a center error onto a named D-Bus error.
// UnregisteredApplication carries the application id as its second body element.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}

	var unregistered *center.UnregisteredApplicationError
	switch {
	case errors.As(err, &unregistered):
		return dbus.NewError(ErrorUnregisteredApplication, []any{err.Error(), unregistered.ApplicationID})
	case errors.Is(err, model.ErrEmptyTitle), errors.Is(err, model.ErrInvalidStyle):
		return dbus.NewError(ErrorInvalidArgument, []any{err.Error()})
	case errors.Is(err, center.ErrClosed):
		return dbus.NewError(ErrorClosed, []any{err.Error()})
	default:
		return dbus.NewError(ErrorFailed, []any{err.Error()})
	}
}

// fromDBusError maps an error from a method call back onto the center's
// error types, so callers can use errors.Is and errors.As across the bus.
func fromDBusError(err error) error {
	if err == nil {
		return nil
	}

	var dErr dbus.Error
	if pErr := (*dbus.Error)(nil); errors.As(err, &pErr) {
		dErr = *pErr
	} else if !errors.As(err, &dErr) {
		return err
	}

	switch dErr.Name {
	case ErrorUnregisteredApplication:
		appID := ""
		if len(dErr.Body) > 1 {
			appID, _ = dErr.Body[1].(string)
		}
		return &center.UnregisteredApplicationError{ApplicationID: appID}
	case ErrorClosed:
		return center.ErrClosed
	default:
		return err
	}
}
