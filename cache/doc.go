// Package cache provides a bounded TTL cache of materialized tables.
// This package implements:
// - Thread-safe lookup keyed by a reference locator
// - Oldest-entry eviction when the size cap is reached
// - TTL-based expiration so stale container reads age out
package cache
