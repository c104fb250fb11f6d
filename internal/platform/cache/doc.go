// Package cache provides a Redis cache and a cache-aside decorator for
// store.TaskStore. Cache failures are logged and never fail a store call.
package cache
