// Package scheduler dispatches tasks onto a fixed-size pool of workers,
// deduplicating repeated prompts through the shared result cache and
// retrying failed attempts with exponential backoff and an optional
// fallback prompt. Failures never escape the scheduler: an exhausted task
// still completes, carrying an error-tagged result string.
package scheduler
