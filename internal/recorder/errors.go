package recorder

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("recorder_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("recorder_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("recorder_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("recorder_schema_migration_failed")
	ErrSchemaTooNew           = errors.ErrorCode("recorder_schema_too_new")
	ErrTransactionFailed      = errors.ErrorCode("recorder_transaction_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("recorder_storage_access_failed")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed
	ErrClosed        = errors.ErrorCode("recorder_closed")

	// Session Errors
	ErrSessionNotFound = errors.ErrorCode("recorder_session_not_found")
	ErrUnknownMetric   = errors.ErrorCode("recorder_unknown_metric")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
