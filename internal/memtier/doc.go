// Package memtier tracks which components occupy which memory tier and how
// much of each tier's budget is in use. It never moves data; the transfer
// executor reports moves through BeginTransit, CommitTransit and AbortTransit.
//
// Two tiers are modeled: Host (large, usually unbounded) and Accelerator
// (the binding constraint). A component being copied between tiers is
// reported as InTransit and its bytes stay charged to the source tier until
// the move commits.
package memtier
