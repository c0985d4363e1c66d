// Package api exposes the DSL over HTTP: task submission with an
// optional synchronous wait, and a metrics snapshot endpoint. The
// scheduler core itself has no network surface; this is the thin layer
// the web frontend talks to.
package api
