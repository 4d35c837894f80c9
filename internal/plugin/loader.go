package plugin

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
	"imgproc.szuro.net/internal/config"
	"imgproc.szuro.net/internal/logger"
	"imgproc.szuro.net/internal/metrics"
	"imgproc.szuro.net/pkg/filter"
	pluginPkg "imgproc.szuro.net/pkg/plugin"
	"imgproc.szuro.net/pkg/pixel"
)

const (
	KIND_NATIVE  = "native"
	KIND_RPC     = "rpc"
	KIND_BUILTIN = "builtin"

	BUILTIN_PREFIX = "builtin:"
	RPC_PREFIX     = "rpc:"
)

// Handle binds a resolved filter to whatever keeps it alive: a loaded
// library, a plugin process, or nothing for builtins. It stays valid until
// the registry is closed.
type Handle struct {
	Info   pluginPkg.PluginInfo
	filter pluginPkg.Filter
	closer io.Closer

	// Fingerprint identifies the code behind the handle: its name, kind,
	// path and ABI plus the size and modification time of the file it was
	// loaded from. Results computed by a rebuilt plugin get a new one.
	Fingerprint string
}

func fingerprint(info pluginPkg.PluginInfo) string {
	fp := fmt.Sprintf("%s|%s|%s|%s", info.Name, info.Kind, info.Path, info.ABI)
	if info.Path == "" {
		return fp + "|" + config.Version
	}
	if st, err := os.Stat(info.Path); err == nil {
		fp += fmt.Sprintf("|%d|%d", st.Size(), st.ModTime().UnixNano())
	}
	return fp
}

// Registry resolves filter names to handles and invokes them. The first
// resolve of a name loads it exactly once, even under concurrent callers;
// later resolves return the same handle.
type Registry struct {
	conf    config.HostConf
	open    func(string) (library, error)
	plugins map[string]*Handle
	mutex   sync.RWMutex
	loads   singleflight.Group
}

func NewRegistry(conf config.HostConf) *Registry {
	return &Registry{
		conf:    conf,
		open:    openLibrary,
		plugins: make(map[string]*Handle),
	}
}

// Resolve returns the handle for name, loading it on first use.
//
// Plain names are native libraries at <plugins_dir>/<name>.<ext>; names
// prefixed "rpc:" are go-plugin executables in rpc_plugins_dir; names
// prefixed "builtin:" are the filters compiled into the host.
func (pr *Registry) Resolve(name string) (*Handle, error) {
	pr.mutex.RLock()
	h, ok := pr.plugins[name]
	pr.mutex.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := pr.loads.Do(name, func() (interface{}, error) {
		pr.mutex.RLock()
		h, ok := pr.plugins[name]
		pr.mutex.RUnlock()
		if ok {
			return h, nil
		}

		h, err := pr.load(name)
		if err != nil {
			return nil, err
		}

		h.Fingerprint = fingerprint(h.Info)

		pr.mutex.Lock()
		pr.plugins[name] = h
		pr.mutex.Unlock()

		logger.Info("Successfully loaded plugin",
			slog.String("name", h.Info.Name),
			slog.String("kind", h.Info.Kind),
			slog.String("path", h.Info.Path),
			slog.String("abi", h.Info.ABI))
		metrics.PluginInfo.WithLabelValues(h.Info.Name, h.Info.Kind, h.Info.ABI).Set(1)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (pr *Registry) load(name string) (*Handle, error) {
	switch {
	case strings.HasPrefix(name, BUILTIN_PREFIX):
		builtin := strings.TrimPrefix(name, BUILTIN_PREFIX)
		f, ok := filter.Builtins()[builtin]
		if !ok {
			return nil, fmt.Errorf("%w: no builtin filter %q", ErrLibraryNotFound, builtin)
		}
		return &Handle{
			Info:   pluginPkg.PluginInfo{Name: name, Kind: KIND_BUILTIN, ABI: KIND_BUILTIN},
			filter: f,
		}, nil

	case strings.HasPrefix(name, RPC_PREFIX):
		exe := strings.TrimPrefix(name, RPC_PREFIX)
		path, err := ExecutablePath(pr.conf.RPCPluginsDir, exe)
		if err != nil {
			return nil, err
		}
		logger.Info("Loading RPC plugin", slog.String("path", path))
		p, err := openRPC(name, path)
		if err != nil {
			return nil, err
		}
		return &Handle{Info: p.Info(), filter: p, closer: p}, nil

	default:
		path, err := LibraryPath(pr.conf.PluginsDir, name)
		if err != nil {
			return nil, err
		}
		abi := pr.conf.FilterABI(name)
		if abi == config.ABI_VOID {
			logger.Warn("Plugin is declared with the legacy void ABI, failures cannot be detected",
				slog.String("name", name))
		}
		logger.Info("Loading plugin", slog.String("path", path))
		p, err := openNative(name, path, abi, pr.open)
		if err != nil {
			return nil, err
		}
		return &Handle{Info: p.Info(), filter: p, closer: p}, nil
	}
}

// NormalizeParams converts params to the canonical encoding according to
// the registry's legacy_params mode.
func (pr *Registry) NormalizeParams(params string) (string, error) {
	return NormalizeParams(params, pr.conf.LegacyParams)
}

// Invoke runs the filter behind h on buf. The buffer is borrowed
// exclusively for the duration of the call and handed back afterwards even
// when the filter fails, in which case its contents are undefined.
func (pr *Registry) Invoke(h *Handle, buf *pixel.Buffer, params string) error {
	params, err := NormalizeParams(params, pr.conf.LegacyParams)
	if err != nil {
		metrics.FilterInvocations.WithLabelValues(h.Info.Name, metrics.RESULT_REFUSED).Inc()
		return err
	}

	img, err := buf.Borrow()
	if err != nil {
		metrics.FilterInvocations.WithLabelValues(h.Info.Name, metrics.RESULT_REFUSED).Inc()
		return err
	}
	defer img.Release()

	logger.Debug("Invoking filter",
		slog.String("name", h.Info.Name),
		slog.Int("width", int(img.Width)),
		slog.Int("height", int(img.Height)))

	start := time.Now()
	err = h.filter.Apply(img, params)
	metrics.FilterDuration.WithLabelValues(h.Info.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FilterInvocations.WithLabelValues(h.Info.Name, metrics.RESULT_FAILED).Inc()
		return fmt.Errorf("filter %s failed: %w", h.Info.Name, err)
	}
	metrics.FilterInvocations.WithLabelValues(h.Info.Name, metrics.RESULT_OK).Inc()
	return nil
}

// Apply resolves name and invokes it on buf.
func (pr *Registry) Apply(name string, buf *pixel.Buffer, params string) error {
	h, err := pr.Resolve(name)
	if err != nil {
		return err
	}
	return pr.Invoke(h, buf, params)
}

// ListPlugins returns information about all loaded plugins, sorted by name.
func (pr *Registry) ListPlugins() []pluginPkg.PluginInfo {
	pr.mutex.RLock()
	defer pr.mutex.RUnlock()

	infos := make([]pluginPkg.PluginInfo, 0, len(pr.plugins))
	for _, h := range pr.plugins {
		infos = append(infos, h.Info)
	}
	slices.SortFunc(infos, func(a, b pluginPkg.PluginInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

// Close unloads every plugin. Handles obtained earlier must not be used
// afterwards.
func (pr *Registry) Close() error {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()

	var errs []error
	for name, h := range pr.plugins {
		metrics.PluginInfo.DeleteLabelValues(h.Info.Name, h.Info.Kind, h.Info.ABI)
		if h.closer == nil {
			continue
		}
		logger.Debug("Unloading plugin", slog.String("name", name))
		if err := h.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	pr.plugins = make(map[string]*Handle)
	return errors.Join(errs...)
}
