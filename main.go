package main

import (
	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}
