// Package filter implements the pixel algorithms shipped with imgproc: an
// edge-clamped box blur and in-place axis flips. The functions work directly
// on RGBA8 bytes so they can run behind the plugin ABI, in-process or in an
// RPC plugin without conversion.
package filter

import "imgproc.szuro.net/pkg/plugin"

// Builtins returns the filters compiled into the host, keyed by name.
func Builtins() map[string]plugin.Filter {
	return map[string]plugin.Filter{
		Blur{}.Name():   Blur{},
		Mirror{}.Name(): Mirror{},
	}
}
