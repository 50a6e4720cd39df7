// Package errors provides foundational, type-safe error primitives used across docsync.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, filesystem, site, nav, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: whether the user must act before rerunning (runs never retry)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "copy failed").
//		WithContext("repository", repo.Name).
//		WithContext("path", dst).
//		Build()
package errors
