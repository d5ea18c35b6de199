// Package config handles loading and saving of akgeom settings.
package config

import "time"

// Config holds all settings.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Geometry  GeometryConfig  `yaml:"geometry"`
	Acoustics AcousticsConfig `yaml:"acoustics"`
	Editor    EditorConfig    `yaml:"editor"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EngineConfig holds the connection to the remote spatial audio engine.
type EngineConfig struct {
	Transport         string        `yaml:"transport"` // tcp, websocket or dry-run
	Address           string        `yaml:"address"`   // host:port for tcp, ws:// URL for websocket
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	CompressThreshold int           `yaml:"compress_threshold"` // payload bytes; 0 disables compression
}

// GeometryConfig holds the defaults applied to every geometry component
// unless the scene object sets its own value.
type GeometryConfig struct {
	MeshType                         string  `yaml:"mesh_type"`
	LOD                              int     `yaml:"lod"`
	WeldingThreshold                 float32 `yaml:"welding_threshold"`
	UnitsPerMeter                    float32 `yaml:"units_per_meter"`
	Solid                            bool    `yaml:"solid"`
	EnableDiffraction                bool    `yaml:"enable_diffraction"`
	EnableDiffractionOnBoundaryEdges bool    `yaml:"enable_diffraction_on_boundary_edges"`
	BypassPortalSubtraction          bool    `yaml:"bypass_portal_subtraction"`
}

// AcousticsConfig holds acoustic property defaults.
type AcousticsConfig struct {
	DefaultTransmissionLoss float32 `yaml:"default_transmission_loss"`
}

// EditorConfig holds editor-only behaviour.
type EditorConfig struct {
	Enabled    bool `yaml:"enabled"`
	WatchScene bool `yaml:"watch_scene"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Transport:         "tcp",
			Address:           "127.0.0.1:24024",
			ConnectTimeout:    5 * time.Second,
			RetryInterval:     2 * time.Second,
			CompressThreshold: 16 * 1024,
		},
		Geometry: GeometryConfig{
			MeshType:         "collision",
			LOD:              0,
			WeldingThreshold: 0,
			UnitsPerMeter:    1,
		},
		Acoustics: AcousticsConfig{
			DefaultTransmissionLoss: 1.0,
		},
		Editor: EditorConfig{
			Enabled:    false,
			WatchScene: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
