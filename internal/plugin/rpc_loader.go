package plugin

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	goplugin "github.com/hashicorp/go-plugin"
	"imgproc.szuro.net/internal/logger"
	pluginPkg "imgproc.szuro.net/pkg/plugin"
	"imgproc.szuro.net/pkg/pixel"
)

// pluginProcess is the part of *goplugin.Client the adapter relies on.
type pluginProcess interface {
	Exited() bool
	Kill()
}

// RPCPlugin is a Filter served by a separate plugin process through
// HashiCorp go-plugin. Pixels are copied to the child and back, so a crash
// in the plugin cannot corrupt host memory. Like NativePlugin, calls hold a
// read lock and Close waits for them before killing the process.
type RPCPlugin struct {
	name   string
	path   string
	filter pluginPkg.Filter

	mu     sync.RWMutex
	client pluginProcess
}

// openRPC starts the plugin executable at path and dispenses its filter.
func openRPC(name, path string) (*RPCPlugin, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
		}
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w %s: is a directory", ErrLoad, path)
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: pluginPkg.Handshake,
		Plugins: map[string]goplugin.Plugin{
			pluginPkg.RPCPluginName: &pluginPkg.FilterRPCPlugin{},
		},
		Cmd:              exec.Command(path),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           logger.NewHCLogAdapter(),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, path, err)
	}

	raw, err := rpcClient.Dispense(pluginPkg.RPCPluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("plugin %s: %w: %v", path, ErrSymbolNotFound, err)
	}

	filter, ok := raw.(pluginPkg.Filter)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %s: %w: dispensed %T", path, ErrSymbolNotFound, raw)
	}

	return &RPCPlugin{name: name, path: path, client: client, filter: filter}, nil
}

func (p *RPCPlugin) Apply(img *pixel.View, params string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return ErrClosed
	}
	if p.client.Exited() {
		return fmt.Errorf("%w: plugin process %s exited", ErrClosed, p.path)
	}
	return p.filter.Apply(img, params)
}

// Close kills the plugin process once no call is in flight.
func (p *RPCPlugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	p.client.Kill()
	p.client = nil
	return nil
}

func (p *RPCPlugin) Info() pluginPkg.PluginInfo {
	return pluginPkg.PluginInfo{Name: p.name, Kind: KIND_RPC, Path: p.path, ABI: "rpc"}
}
