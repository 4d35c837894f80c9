package plugin

import (
	"fmt"
	"log/slog"
	"strings"

	"imgproc.szuro.net/internal/config"
	"imgproc.szuro.net/internal/logger"
	pluginPkg "imgproc.szuro.net/pkg/plugin"
)

// NormalizeParams turns a parameter payload into the canonical encoding
// before it crosses the boundary. JSON passes through untouched. The legacy
// "key value" encoding is converted when mode is config.LEGACY_ADAPT and
// refused otherwise, so it never reaches a plugin that expects JSON.
func NormalizeParams(raw, mode string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || pluginPkg.IsJSON([]byte(trimmed)) {
		return trimmed, nil
	}

	if mode != config.LEGACY_ADAPT {
		return "", fmt.Errorf("%w: legacy \"key value\" parameters are not accepted (set legacy_params: %s)",
			pluginPkg.ErrParameter, config.LEGACY_ADAPT)
	}

	converted, err := pluginPkg.LegacyToJSON([]byte(trimmed))
	if err != nil {
		return "", err
	}
	logger.Warn("Converted legacy key/value parameters to JSON", slog.String("params", string(converted)))
	return string(converted), nil
}
