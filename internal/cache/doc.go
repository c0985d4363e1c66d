// Package cache provides the bounded result cache shared by all scheduler
// workers. It maps task prompts to their last successful result and evicts
// the least-recently-touched entry when capacity is reached.
package cache
