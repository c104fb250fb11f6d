// Package domain contains the core business entities of the task manager:
// tasks, their status state machine, input rules and sanitization, and users.
// It has no knowledge of storage or transport.
package domain
