// Package store keeps the latest sensor feed per device in memory. Entries
// older than the TTL are hidden from listings and evicted by Run.
package store
