//go:build linux || darwin

package plugin

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type dlLibrary struct {
	handle uintptr
}

func openLibrary(path string) (library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, path, err)
	}
	return &dlLibrary{handle: handle}, nil
}

func (l *dlLibrary) Symbol(name string) (uintptr, error) {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil || sym == 0 {
		return 0, fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, name, err)
	}
	return sym, nil
}

func (l *dlLibrary) Close() error {
	return purego.Dlclose(l.handle)
}
