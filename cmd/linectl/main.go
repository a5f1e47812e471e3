// Command linectl sends individual commands to a linectl device.
//
// Usage:
//
//	linectl [command] [flags]
//
// Examples:
//
//	linectl get-tm temperature -e 10.0.0.7:9090
//	linectl set-bus reserve
//	linectl discover --timeout 3s
//	linectl shell
package main

import (
	"os"

	"github.com/linectl/linectl-go/cmd/linectl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
