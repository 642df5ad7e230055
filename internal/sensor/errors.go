package sensor

import "codeberg.org/mutker/dhtlogger/internal/errors"

const (
	ErrTransientFault = errors.ErrTransientFault
	ErrHardwareFault  = errors.ErrHardwareFault
	ErrInvalidModel   = errors.ErrorCode("sensor_invalid_model")
)

// hardwareError marks a driver failure that is not a routine protocol glitch.
type hardwareError struct {
	err error
}

func (e *hardwareError) Error() string {
	return e.err.Error()
}

func (e *hardwareError) Unwrap() error {
	return e.err
}

// Hardware marks err as a handle-level failure. Unmarked driver errors are
// treated as transient.
func Hardware(err error) error {
	if err == nil {
		return nil
	}

	return &hardwareError{err: err}
}

// IsHardware reports whether err was marked with Hardware or is ErrClosed.
func IsHardware(err error) bool {
	var hw *hardwareError

	return errors.As(err, &hw) || errors.Is(err, ErrClosed)
}
