// Package session owns the single model engine of the process and
// serializes every use of it. It is structured into small files by concern:
//
//   - session.go: Session type, simple getters and Close.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: lifecycle State, Handle and Snapshot.
//   - gate.go: the process-wide exclusive-access gate.
//   - ensure.go: EnsureLoaded/Reload and the load/swap procedure.
//   - status.go: Status/Snapshot reporting helpers.
//   - events.go, eventpub_*.go: lifecycle event publishers.
//   - metrics.go: Prometheus collectors.
//
// The gate is a weighted semaphore of size one. Waiters are served in
// arrival order and a waiter whose context ends before acquisition leaves
// the queue without touching the engine. Loads take the same gate, so a
// reload never interleaves with an in-flight synthesis.
package session
