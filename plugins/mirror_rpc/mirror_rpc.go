// Command mirror_rpc serves the flip filter as an out-of-process plugin.
package main

import (
	"imgproc.szuro.net/pkg/filter"
	"imgproc.szuro.net/pkg/plugin"
)

func main() {
	plugin.ServeRPC(filter.Mirror{})
}
