// Package api exposes the task manager over HTTP.
//
// NewRouter mounts the public auth and health endpoints and, behind Bearer
// token authentication, the current-user and /api/tasks routes. Handlers
// decode and validate JSON payloads, call the services, and translate
// service errors to status codes through MapErrorToStatusCode and
// GetSafeErrorMessage so internal details never reach clients.
package api
