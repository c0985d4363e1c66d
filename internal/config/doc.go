// Package config defines the process-wide configuration surface and its
// loader. Settings come from defaults, an optional config file, and
// FASTDSL_-prefixed environment variables, with the environment taking
// precedence.
package config
