package plugin

import "errors"

var (
	// ErrLibraryNotFound is returned when no library or executable exists
	// for a filter name.
	ErrLibraryNotFound = errors.New("plugin library not found")
	// ErrLoad is returned when a library exists but cannot be loaded.
	ErrLoad = errors.New("failed to load plugin library")
	// ErrSymbolNotFound is returned when a loaded library does not export
	// the process_image entry point.
	ErrSymbolNotFound = errors.New("plugin entry point not found")
	// ErrUnsupportedPlatform is returned on operating systems without a
	// known shared library extension.
	ErrUnsupportedPlatform = errors.New("unsupported operating system")
	// ErrInvalidName is returned for filter names that are not plain file names.
	ErrInvalidName = errors.New("invalid filter name")
	// ErrClosed is returned when a handle is used after Close.
	ErrClosed = errors.New("plugin handle is closed")
)
