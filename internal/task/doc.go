// Package task defines the unit of work handled by the scheduler: an
// immutable request (prompt, agent role, retry/timeout/validation policy)
// paired with guarded completion state that callers can wait on.
package task
