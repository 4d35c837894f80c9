// Command blur_rpc serves the box blur filter as an out-of-process plugin.
// Install it into rpc_plugins_dir and select it with -plugin rpc:blur_rpc.
package main

import (
	"imgproc.szuro.net/pkg/filter"
	"imgproc.szuro.net/pkg/plugin"
)

func main() {
	plugin.ServeRPC(filter.Blur{})
}
