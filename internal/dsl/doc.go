// Package dsl is the fluent construction surface for the scheduling
// core: a builder that assembles a task and hands it to the scheduler,
// plus join and batch primitives for synchronizing on completion of one
// or many in-flight tasks.
package dsl
