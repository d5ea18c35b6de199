// akgeom converts scene geometry into acoustic geometry and keeps it in
// sync with a spatial audio engine.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/midgard-acoustics/internal/config"
	"github.com/Faultbox/midgard-acoustics/internal/logger"
)

func main() {
	// Global flags come before the command.
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	var code int
	switch command {
	case "convert":
		code = cmdConvert(cfg, args)
	case "validate", "check":
		code = cmdValidate(args)
	case "sync":
		code = cmdSync(cfg, args)
	case "listen":
		code = cmdListen(cfg, args)
	case "config":
		code = cmdConfig(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}

	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func printUsage() {
	fmt.Println(`akgeom - acoustic geometry sync for spatial audio engines

Usage:
  akgeom [flags] <command> [arguments]

Commands:
  convert <scene.yaml>     Convert every object and print its surfaces
  validate <scene.yaml>... Check scene documents against the schema
  sync <scene.yaml>        Send the scene to the engine and keep it in sync
  listen [address]         Run a debug receiver that logs incoming packets
  config init [path]       Write the effective config (-force to overwrite)

Flags:
  -config <path>     Config file (default: ./akgeom.yaml or user config dir)
  -server <addr>     Engine address
  -transport <kind>  tcp, websocket or dry-run
  -editor            Enable editor features (scene hot reload)
  -weld <units>      Default welding threshold
  -debug             Debug logging

Examples:
  akgeom convert level.yaml
  akgeom -transport dry-run sync level.yaml
  akgeom -editor -server 127.0.0.1:24024 sync level.yaml
  akgeom -transport websocket listen 127.0.0.1:24025
  akgeom -weld 0.01 config init ./akgeom.yaml`)
}
