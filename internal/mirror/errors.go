package mirror

import "errors"

// Sentinel errors for content mirroring.
var (
	// ErrSourceNotFound indicates a configured source directory does not exist.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrPathCollision indicates two source files map to the same destination path,
	// e.g. README.md and readme.md in one folder.
	ErrPathCollision = errors.New("path collision detected")

	// ErrCopyFailed indicates copying a single file failed.
	ErrCopyFailed = errors.New("file copy failed")
)
