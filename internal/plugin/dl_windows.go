//go:build windows

package plugin

import (
	"fmt"

	"golang.org/x/sys/windows"
)

type dllLibrary struct {
	handle windows.Handle
}

func openLibrary(path string) (library, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, path, err)
	}
	return &dllLibrary{handle: handle}, nil
}

func (l *dllLibrary) Symbol(name string) (uintptr, error) {
	sym, err := windows.GetProcAddress(l.handle, name)
	if err != nil || sym == 0 {
		return 0, fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, name, err)
	}
	return sym, nil
}

func (l *dllLibrary) Close() error {
	return windows.FreeLibrary(l.handle)
}
