//go:build !windows

package main

import (
	"log"
	"os"
	"runtime"
)

func main() {
	if _, err := parseOptions(os.Args[1:]); err != nil {
		printUsage(os.Stderr)
	}
	log.Fatalf("shared D3D12 back-buffers need Windows, not %s", runtime.GOOS)
}
