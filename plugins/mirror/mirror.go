// Command mirror is the flip filter built as a native plugin:
//
//	go build -buildmode=c-shared -o mirror.so ./plugins/mirror
//
// Parameters: {"vertical": <bool>, "horizontal": <bool>}. The vertical flip
// runs first.
package main

// #include <stdint.h>
import "C"

import (
	"unsafe"

	"imgproc.szuro.net/pkg/filter"
	"imgproc.szuro.net/pkg/plugin"
)

//export process_image
func process_image(width, height C.uint32_t, pix *C.uint8_t, params *C.char) C.int32_t {
	return C.int32_t(plugin.Process(uint32(width), uint32(height),
		unsafe.Pointer(pix), unsafe.Pointer(params), filter.Mirror{}))
}

func main() {}
