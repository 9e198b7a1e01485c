// Command leadcapture runs the landing-page lead capture service.
//
//	@title			Lead Capture API
//	@version		1.0
//	@description	Landing-page lead capture with server-side conversion events.
//	@BasePath		/api
package main

import (
	"fmt"
	"os"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "leadcapture:", err)
		os.Exit(1)
	}
}
