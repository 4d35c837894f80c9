// Package plugin defines the contract between the imgproc host and its
// filter plugins.
//
// A native plugin is a shared library that exports exactly one C function:
//
//	int32_t process_image(uint32_t width, uint32_t height,
//	                      uint8_t *pixel_data, const char *params);
//
// The host guarantees that pixel_data is non-NULL and points to exactly
// width*height*4 readable and writable bytes of row-major RGBA8 pixels for
// the duration of the call, and that params is either NULL (no parameters)
// or a NUL-terminated string valid for the same duration. The plugin
// transforms the pixels in place, must not free, reallocate or keep the
// pointers after returning, and reports the outcome with a status code:
// zero for success, a negative value for failure. On failure the pixel
// contents are undefined.
//
// Parameters are a JSON object whose fields are chosen by the filter.
//
// Creating a plugin in Go:
//
// 1. Implement the Filter interface (or reuse one from pkg/filter)
// 2. Export process_image with cgo and forward to Process
// 3. Compile as shared library: go build -buildmode=c-shared -o blur.so
//
// Example:
//
//	package main
//
//	// #include <stdint.h>
//	import "C"
//
//	import (
//	    "unsafe"
//
//	    "imgproc.szuro.net/pkg/filter"
//	    "imgproc.szuro.net/pkg/plugin"
//	)
//
//	//export process_image
//	func process_image(width, height C.uint32_t, pix *C.uint8_t, params *C.char) C.int32_t {
//	    return C.int32_t(plugin.Process(uint32(width), uint32(height),
//	        unsafe.Pointer(pix), unsafe.Pointer(params), filter.Blur{}))
//	}
//
//	func main() {}
//
// The same Filter can instead be served out-of-process with ServeRPC, which
// trades a copy of the pixels for process isolation.
package plugin

import "imgproc.szuro.net/pkg/pixel"

// SymbolName is the exported entry point every native plugin must provide.
const SymbolName = "process_image"

// Filter is the single capability a plugin offers: transform a borrowed
// image in place according to a parameter string.
//
// Implementations must not retain img or img.Pix after returning.
type Filter interface {
	Apply(img *pixel.View, params string) error
}

// FilterFunc adapts an ordinary function to Filter.
type FilterFunc func(img *pixel.View, params string) error

func (f FilterFunc) Apply(img *pixel.View, params string) error {
	return f(img, params)
}

// PluginInfo describes a loaded plugin.
type PluginInfo struct {
	// Name is the logical filter name used to resolve the plugin.
	Name string

	// Kind is one of "native", "rpc" or "builtin".
	Kind string

	// Path is the library or executable backing the plugin, if any.
	Path string

	// ABI is "status" for conforming native plugins and "void" for legacy ones.
	ABI string
}
