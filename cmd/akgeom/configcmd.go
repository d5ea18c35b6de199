package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/midgard-acoustics/internal/config"
	"github.com/Faultbox/midgard-acoustics/internal/logger"
)

// cmdConfig handles "config init [-force] [path]", which writes the
// effective configuration so it can be edited.
func cmdConfig(cfg *config.Config, args []string) int {
	if len(args) < 1 || args[0] != "init" {
		fmt.Fprintln(os.Stderr, "Usage: akgeom config init [-force] [path]")
		return 1
	}

	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	path := config.DefaultPath()
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	if err := cfg.WriteFile(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Writing config: %v\n", err)
		return 1
	}
	logger.Sugar.Infof("Config written to %s", path)
	fmt.Println(path)
	return 0
}
