// Package scheduler decides, for each invocation of a heavy component, whether
// it must first be moved onto the accelerator and which residents must be
// evicted to make room. It is structured into small files by concern:
//
//   - scheduler.go: core Scheduler type, constructor, simple getters.
//   - config.go: Config and Group; New validates and registers components.
//   - errors.go: error predicates (IsUnknownComponent, IsCapacityExceeded, ...).
//   - ensure.go: EnsureResident, the central placement operation.
//   - evict.go: exclusivity-group and budget-pressure eviction, LRU first.
//   - release.go: Release, Reset and Close.
//   - run.go: Run, the ensure/compute/release bracket with in-flight tracking.
//   - status_report.go: Status reporting for the HTTP layer.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors.
//
// All tier mutation is serialized through the scheduler; there is no
// background eviction. A transfer blocks the call path that triggered it.
package scheduler
