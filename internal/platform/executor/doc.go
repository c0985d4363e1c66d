// Package executor provides the scheduler's executor backends: real LLM
// providers (Gemini, Anthropic) and a deterministic echo backend used in
// demos and whenever no API key is configured.
package executor
