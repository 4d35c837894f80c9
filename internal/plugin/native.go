package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"imgproc.szuro.net/internal/config"
	"imgproc.szuro.net/internal/logger"
	pluginPkg "imgproc.szuro.net/pkg/plugin"
	"imgproc.szuro.net/pkg/pixel"
)

// library is a loaded shared library.
type library interface {
	Symbol(name string) (uintptr, error)
	Close() error
}

// Go types the resolved process_image pointer is registered as. The loader
// trusts the library to match the declared C signature exactly; a mismatch
// is undefined behaviour and cannot be detected here.
type (
	processImageFunc     func(width, height uint32, pix, params unsafe.Pointer) int32
	processImageVoidFunc func(width, height uint32, pix, params unsafe.Pointer)
)

// Pointer handed over for zero-area images so the plugin still receives a
// non-NULL pixel pointer.
var emptyPixels [1]byte

// NativePlugin is a Filter backed by a shared library's process_image.
// The function pointer is only valid while the library is loaded, so calls
// hold a read lock and Close waits for them.
type NativePlugin struct {
	name string
	path string
	abi  string

	mu      sync.RWMutex
	lib     library
	process processImageFunc
	legacy  processImageVoidFunc
}

// openNative loads the library at path and resolves process_image.
func openNative(name, path, abi string, open func(string) (library, error)) (*NativePlugin, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
		}
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, path, err)
	}

	lib, err := open(path)
	if err != nil {
		return nil, err
	}
	sym, err := lib.Symbol(pluginPkg.SymbolName)
	if err != nil {
		lib.Close()
		return nil, fmt.Errorf("plugin %s: %w", path, err)
	}

	p := &NativePlugin{name: name, path: path, abi: abi, lib: lib}
	switch abi {
	case config.ABI_VOID:
		purego.RegisterFunc(&p.legacy, sym)
	default:
		purego.RegisterFunc(&p.process, sym)
	}
	return p, nil
}

// Apply calls process_image on the borrowed pixels. The pixel memory is
// pinned for the duration of the call and params is passed as a fresh
// NUL-terminated copy, or NULL when empty.
func (p *NativePlugin) Apply(img *pixel.View, params string) error {
	n, err := pixel.ByteLen(img.Width, img.Height)
	if err != nil {
		return err
	}
	if len(img.Pix) != n {
		return fmt.Errorf("%w: got %d bytes, want %d", pixel.ErrSizeMismatch, len(img.Pix), n)
	}
	if strings.IndexByte(params, 0) >= 0 {
		return fmt.Errorf("%w: parameter string contains a NUL byte", pluginPkg.ErrParameter)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lib == nil {
		return ErrClosed
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()

	pixPtr := unsafe.Pointer(&emptyPixels[0])
	if n > 0 {
		pixPtr = unsafe.Pointer(&img.Pix[0])
		pinner.Pin(pixPtr)
	}
	var paramsPtr unsafe.Pointer
	if params != "" {
		cstr := append([]byte(params), 0)
		paramsPtr = unsafe.Pointer(&cstr[0])
		pinner.Pin(paramsPtr)
	}

	if p.legacy != nil {
		p.legacy(img.Width, img.Height, pixPtr, paramsPtr)
		logger.Warn("Legacy void plugin gives no failure status, assuming success",
			slog.String("plugin", p.name))
		return nil
	}

	status := p.process(img.Width, img.Height, pixPtr, paramsPtr)
	if status > 0 {
		logger.Warn("Plugin returned a non-conforming positive status",
			slog.String("plugin", p.name),
			slog.Int("status", int(status)))
	}
	return pluginPkg.ErrorFor(status)
}

// Close unloads the library once no call is in flight.
func (p *NativePlugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lib == nil {
		return nil
	}
	err := p.lib.Close()
	p.lib = nil
	p.process = nil
	p.legacy = nil
	return err
}

func (p *NativePlugin) Info() pluginPkg.PluginInfo {
	return pluginPkg.PluginInfo{Name: p.name, Kind: KIND_NATIVE, Path: p.path, ABI: p.abi}
}
