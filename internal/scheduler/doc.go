// Package scheduler is the core engine: it bridges persisted task
// definitions to live recurring triggers and dispatches fired triggers to
// their handlers.
//
// Semantics:
//   - Registration is idempotent by derived task name.
//   - schedule/unschedule are serialized under one lock that covers the
//     store read-modify-write and the trigger table; firing is not.
//   - Every fire yields exactly one execution record; handler faults are
//     contained and never cancel future fires.
//   - Reconcile rebuilds the trigger table from the store on startup.
//
// Known limitation, inherited from the design: handlers have no timeout
// and a removal never interrupts an in-flight run.
package scheduler
