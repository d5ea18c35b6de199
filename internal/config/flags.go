package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagServer    = flag.String("server", "", "Spatial audio engine address")
	flagTransport = flag.String("transport", "", "Engine transport: tcp, websocket or dry-run")
	flagEditor    = flag.Bool("editor", false, "Enable editor features (scene hot reload, undo, asset replacement)")
	flagWeld      = flag.Float64("weld", -1, "Default welding threshold")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagServer != "" {
		cfg.Engine.Address = *flagServer
	}
	if *flagTransport != "" {
		cfg.Engine.Transport = *flagTransport
	}
	if *flagEditor {
		cfg.Editor.Enabled = true
	}
	if *flagWeld >= 0 {
		cfg.Geometry.WeldingThreshold = float32(*flagWeld)
	}
}
