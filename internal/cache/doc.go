// Package cache provides a two-level byte cache for fetched scenes: an
// in-memory LRU cache (L1) in front of a zstd-compressed disk cache (L2)
// that survives restarts.
package cache
