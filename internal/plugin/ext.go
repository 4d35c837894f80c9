package plugin

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// LibraryExt returns the shared library extension for goos.
func LibraryExt(goos string) (string, error) {
	switch goos {
	case "linux":
		return "so", nil
	case "darwin":
		return "dylib", nil
	case "windows":
		return "dll", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// CheckPlatform fails on operating systems imgproc cannot load native
// plugins on. The host calls it once at startup.
func CheckPlatform() error {
	_, err := LibraryExt(runtime.GOOS)
	return err
}

// LibraryPath returns <dir>/<name>.<ext> for the running platform.
func LibraryPath(dir, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	ext, err := LibraryExt(runtime.GOOS)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+"."+ext), nil
}

// ExecutablePath returns the path of an RPC plugin executable.
func ExecutablePath(dir, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
