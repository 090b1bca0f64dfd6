package errors

import "net/http"

var (
	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Viewer session not found",
		http.StatusNotFound,
	)

	ErrSessionLimit = New(
		"SESSION_LIMIT_REACHED",
		"Too many active viewer sessions",
		http.StatusServiceUnavailable,
	)

	ErrSessionClosed = New(
		"SESSION_CLOSED",
		"Viewer session is closed",
		http.StatusGone,
	)

	ErrInvalidSessionID = New(
		"INVALID_SESSION_ID",
		"Invalid session ID",
		http.StatusBadRequest,
	)

	ErrInvalidYear = New(
		"INVALID_YEAR",
		"Invalid scenario year: must be 2025 or 2050",
		http.StatusBadRequest,
	)

	ErrInvalidMunicipality = New(
		"INVALID_MUNICIPALITY",
		"Invalid municipality",
		http.StatusBadRequest,
	)

	ErrInvalidCategory = New(
		"INVALID_CATEGORY",
		"Invalid asset category",
		http.StatusBadRequest,
	)

	ErrUnknownCommand = New(
		"UNKNOWN_COMMAND",
		"Unknown scenario command",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrEmptyExport = New(
		"EMPTY_EXPORT",
		"No exposed assets found for this municipality",
		http.StatusUnprocessableEntity,
	)

	ErrExportNotFound = New(
		"EXPORT_NOT_FOUND",
		"Export not found",
		http.StatusNotFound,
	)

	ErrExportNotReady = New(
		"EXPORT_NOT_READY",
		"Export is not ready yet",
		http.StatusConflict,
	)

	ErrExportFailed = New(
		"EXPORT_FAILED",
		"Export failed",
		http.StatusUnprocessableEntity,
	)

	ErrExportQueueUnavailable = New(
		"EXPORT_QUEUE_UNAVAILABLE",
		"Background export queue is not configured",
		http.StatusServiceUnavailable,
	)

	ErrDatasetUnavailable = New(
		"DATASET_UNAVAILABLE",
		"Scenario dataset is not loaded",
		http.StatusServiceUnavailable,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrTimeout = New(
		"TIMEOUT",
		"Request timed out",
		http.StatusGatewayTimeout,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
