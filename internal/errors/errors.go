// Package errors defines domain-level errors used throughout the application.
// These errors represent watchdog failures and are mapped to appropriate HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/daemon/api_server.go)
// 2. Add a test case to TestMapError (internal/daemon/api_server_test.go)
// 3. Consider if existing handler tests need updates
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the client provided invalid input or made a malformed request.
	// This typically results from validation failures or incorrect request parameters.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrTargetNotFound indicates that the requested target does not exist in the loaded configuration.
	// Recommended to map to HTTP 404 Not Found.
	ErrTargetNotFound = errors.New("target not found")

	// ErrHealthNotTracked indicates that health monitoring is not enabled for the specified target.
	// This occurs when trying to get health status for a target that isn't being monitored.
	// Recommended to map to HTTP 404 Not Found.
	ErrHealthNotTracked = errors.New("target health is not being tracked")

	// ErrRemediationFailed indicates that the external remediation action reported a failure.
	// The cooldown is still recorded when this occurs (anti-flap); the error is informational
	// for callers that triggered a cycle directly.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrRemediationFailed = errors.New("remediation action failed")

	// ErrNotificationFailed indicates that the notification collaborator could not be reached.
	// Notification failures never abort a remediation cycle; this error is only ever logged.
	ErrNotificationFailed = errors.New("notification failed")

	// ErrStateRead indicates that the persisted heal state for a target could not be read.
	// A cycle aborts before dispatching any remediation when this occurs.
	// Recommended to map to HTTP 500 Internal Server Error.
	ErrStateRead = errors.New("heal state read failed")

	// ErrStateWrite indicates that the persisted heal state for a target could not be durably written.
	// The remediation action has already been dispatched (at most once) when this surfaces,
	// so an operator needs to intervene before the next cycle.
	// Recommended to map to HTTP 500 Internal Server Error.
	ErrStateWrite = errors.New("heal state write failed")

	// ErrReportInvalid indicates that an ingested agent health report failed schema validation.
	// Recommended to map to HTTP 400 Bad Request.
	ErrReportInvalid = errors.New("agent report invalid")

	// ErrReportNotFound indicates that no report has been ingested for the requested host.
	// Recommended to map to HTTP 404 Not Found.
	ErrReportNotFound = errors.New("agent report not found")

	// ErrUnknownHost indicates that a host referenced by a chat command is not present
	// in the loaded inventory.
	// Recommended to map to HTTP 404 Not Found.
	ErrUnknownHost = errors.New("host not found in inventory")
)
