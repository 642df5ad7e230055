package telemetry

import "codeberg.org/mutker/dhtlogger/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	// Collection Errors
	ErrInvalidRecord = errors.ErrorCode("telemetry_invalid_record")

	// Storage Errors
	ErrStorageAccess          = errors.ErrorCode("telemetry_storage_access_failed")
	ErrStorageInit            = errors.ErrorCode("telemetry_storage_init_failed")
	ErrStorageClose           = errors.ErrorCode("telemetry_storage_close_failed")
	ErrSchemaInitFailed       = errors.ErrorCode("telemetry_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("telemetry_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("telemetry_schema_migration_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("telemetry_operation_timeout")
	ErrServiceShutdown  = errors.ErrorCode("telemetry_service_shutdown_failed")
)
