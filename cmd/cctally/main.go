package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cctally/cctally/internal/config"
)

func main() {
	if os.Getenv("CCTALLY_DEBUG") == "" {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		// Load hands back usable defaults; a broken settings file should
		// not keep the tool from running.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
	}

	if err := newRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
