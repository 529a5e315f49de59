// Package config provides environment-based and file-based configuration for
// the tracing library.
//
// All environment variables share the TRAICING_ prefix. LoadFile accepts a
// YAML file with the same shape, applied over defaults. Applications that
// configure the tracer programmatically can ignore this package entirely.
package config
