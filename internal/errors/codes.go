package errors

// Common error codes
const (
	// System errors
	ErrInternal       ErrorCode = "internal_error"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Shutdown errors
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Application errors
	ErrMainLoop ErrorCode = "main_loop_failed"
	ErrCleanup  ErrorCode = "cleanup_failed"

	// Sensor errors
	ErrTransientFault ErrorCode = "sensor_transient_fault"
	ErrHardwareFault  ErrorCode = "sensor_hardware_fault"

	// Sink errors
	ErrConnectFault ErrorCode = "metrics_connect_failed"
	ErrNotConnected ErrorCode = "metrics_not_connected"
	ErrWriteFault   ErrorCode = "metrics_write_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidLogLevel: "Invalid log level",
	ErrShutdownFailed:  "Shutdown failed",
	ErrMainLoop:        "Error in main loop",
	ErrCleanup:         "Cleanup failed",
	ErrTransientFault:  "Transient sensor read failure",
	ErrHardwareFault:   "Sensor hardware failure",
	ErrConnectFault:    "Failed to connect to InfluxDB",
	ErrNotConnected:    "InfluxDB not connected",
	ErrWriteFault:      "Failed to write to InfluxDB",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
