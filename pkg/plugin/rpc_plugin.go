package plugin

import (
	"errors"
	"fmt"
	"net/rpc"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"imgproc.szuro.net/pkg/pixel"
)

// Handshake is the shared configuration between the imgproc host and RPC
// plugins. It must match exactly on both sides.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "IMGPROC_PLUGIN",
	MagicCookieValue: "process_image",
}

// RPCPluginName is the key under which RPC plugins dispense their Filter.
const RPCPluginName = "filter"

// ApplyArgs is the request sent to an RPC plugin. Pixels are copied.
type ApplyArgs struct {
	Width  uint32
	Height uint32
	Pix    []byte
	Params string
}

// ApplyReply carries the transformed pixels, or the status code of a
// failure.
type ApplyReply struct {
	Pix    []byte
	Status int32
}

// FilterRPCPlugin implements plugin.Plugin from hashicorp/go-plugin over
// net/rpc.
type FilterRPCPlugin struct {
	// Impl is only set on the plugin side.
	Impl Filter
}

func (p *FilterRPCPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &FilterRPCServer{Impl: p.Impl}, nil
}

func (p *FilterRPCPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &FilterRPCClient{client: c}, nil
}

// FilterRPCServer runs inside the plugin process.
type FilterRPCServer struct {
	Impl Filter
}

// Apply is the net/rpc method behind FilterRPCClient.Apply. Filter failures
// travel in the reply status; the returned error is reserved for transport
// problems.
func (s *FilterRPCServer) Apply(args ApplyArgs, reply *ApplyReply) (err error) {
	defer func() {
		if r := recover(); r != nil {
			reply.Pix = nil
			reply.Status = StatusPanic
		}
	}()

	img, err := pixel.Foreign(args.Width, args.Height, args.Pix)
	if err != nil {
		reply.Status = StatusFor(err)
		return nil
	}
	defer img.Release()

	if err := s.Impl.Apply(img, args.Params); err != nil {
		reply.Status = StatusFor(err)
		return nil
	}
	reply.Pix = args.Pix
	reply.Status = StatusOK
	return nil
}

// FilterRPCClient is the host-side Filter backed by a plugin process.
type FilterRPCClient struct {
	client *rpc.Client
}

func (c *FilterRPCClient) Apply(img *pixel.View, params string) error {
	args := ApplyArgs{Width: img.Width, Height: img.Height, Pix: img.Pix, Params: params}
	var reply ApplyReply
	if err := c.client.Call("Plugin.Apply", args, &reply); err != nil {
		return fmt.Errorf("rpc call failed: %w", err)
	}
	if err := ErrorFor(reply.Status); err != nil {
		return err
	}
	if len(reply.Pix) != len(img.Pix) {
		return errors.New("rpc plugin returned a buffer of the wrong size")
	}
	copy(img.Pix, reply.Pix)
	return nil
}

// ServeRPC runs f as an out-of-process plugin. It blocks until the host
// disconnects.
func ServeRPC(f Filter) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			RPCPluginName: &FilterRPCPlugin{Impl: f},
		},
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:       "imgproc-plugin",
			Level:      hclog.Info,
			JSONFormat: true,
		}),
	})
}
