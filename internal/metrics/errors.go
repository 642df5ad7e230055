package metrics

import "codeberg.org/mutker/dhtlogger/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig

	// Connection Errors
	ErrConnectFault = errors.ErrConnectFault
	ErrNotConnected = errors.ErrNotConnected

	// Write Errors
	ErrWriteFault = errors.ErrWriteFault

	// Service Errors
	ErrServiceShutdown = errors.ErrShutdownFailed
)
