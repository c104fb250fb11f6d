// Package events carries task lifecycle notifications from the task service
// to in-process handlers such as the audit log. Delivery is synchronous.
package events
