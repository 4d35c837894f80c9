//go:build !linux && !darwin && !windows

package plugin

import (
	"fmt"
	"runtime"
)

func openLibrary(path string) (library, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
