// Package queue implements the asynchronous task engine: submission with
// priority ordering, bounded concurrent dispatch, timeout-guarded execution,
// lifecycle tracking, and TTL-based eviction of finished results.
package queue
