// Package events defines the completion events emitted by the scheduler
// and a simple in-memory fan-out emitter for delivering them to observers
// such as progress loggers or push channels.
package events
