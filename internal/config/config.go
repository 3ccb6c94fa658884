// Package config loads viewer settings from defaults, a YAML file and flags.
package config

import "time"

// Config holds all application settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Data     DataConfig     `yaml:"data"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds window and framebuffer settings.
type GraphicsConfig struct {
	Width       int  `yaml:"width"`
	Height      int  `yaml:"height"`
	Fullscreen  bool `yaml:"fullscreen"`
	VSync       bool `yaml:"vsync"`
	MSAASamples int  `yaml:"msaa_samples"`
}

// ViewerConfig holds the initial light and the static quality options.
type ViewerConfig struct {
	LightIntensity    float32       `yaml:"light_intensity"`
	ColorTemperature  int           `yaml:"color_temperature"`
	LightDirection    [3]float32    `yaml:"light_direction"`
	IndirectIntensity float32       `yaml:"indirect_intensity"`
	Environment       string        `yaml:"environment"`
	Debounce          time.Duration `yaml:"debounce"`
	ClearColor        [4]float32    `yaml:"clear_color"`
	Quality           QualityConfig `yaml:"quality"`
}

// QualityConfig toggles post-processing features.
type QualityConfig struct {
	Antialiasing      bool `yaml:"antialiasing"`
	DynamicResolution bool `yaml:"dynamic_resolution"`
	AmbientOcclusion  bool `yaml:"ambient_occlusion"`
	Bloom             bool `yaml:"bloom"`
	HDR               bool `yaml:"hdr"`
}

// DataConfig holds on-disk locations.
type DataConfig struct {
	DataDir   string `yaml:"data_dir"`   // records and imported models
	AssetsDir string `yaml:"assets_dir"` // bundled models and environments
}

// AuthConfig holds credential storage settings.
type AuthConfig struct {
	KeyFile       string `yaml:"key_file"`
	RememberLogin bool   `yaml:"remember_login"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock viewer settings.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      800,
			VSync:       true,
			MSAASamples: 4,
		},
		Viewer: ViewerConfig{
			LightIntensity:    100000,
			ColorTemperature:  6500,
			LightDirection:    [3]float32{-0.5, -1, -0.5},
			IndirectIntensity: 30000,
			Environment:       "default_env",
			Debounce:          150 * time.Millisecond,
			ClearColor:        [4]float32{0.08, 0.08, 0.1, 1},
			Quality: QualityConfig{
				Antialiasing:      true,
				DynamicResolution: true,
				AmbientOcclusion:  true,
				Bloom:             true,
				HDR:               true,
			},
		},
		Data: DataConfig{
			DataDir:   DataDir(),
			AssetsDir: "assets",
		},
		Auth: AuthConfig{
			RememberLogin: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// KeyFile returns the configured key path or one inside the data dir.
func (c *Config) KeyFile() string {
	if c.Auth.KeyFile != "" {
		return c.Auth.KeyFile
	}
	return joinData(c.Data.DataDir, "install.key")
}
