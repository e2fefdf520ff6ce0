package server

import "avatard/project"

// Config is the avatard configuration. Fields are filled from defaults, the
// optional config file, the environment, then command line flags.
type Config struct {
	Port           int    `json:"port" yaml:"port" env:"PORT"`
	PackageName    string `json:"packageName" yaml:"packageName" env:"AVATARD_PACKAGE_NAME"`
	LogLevel       string `json:"logLevel" yaml:"logLevel" env:"AVATARD_LOG_LEVEL"`
	LogDir         string `json:"logDir" yaml:"logDir" env:"AVATARD_LOG_DIR"`
	Dev            bool   `json:"dev" yaml:"dev" env:"AVATARD_DEV"`
	SassBin        string `json:"sassBin" yaml:"sassBin" env:"SASS_BIN"`
	TailwindBin    string `json:"tailwindBin" yaml:"tailwindBin" env:"TAILWIND_BIN"`
	HotReloadFile  string `json:"hotReloadFile" yaml:"hotReloadFile" env:"AVATARD_HOT_RELOAD_FILE"`
	StripHotReload bool   `json:"stripHotReload" yaml:"stripHotReload" env:"AVATARD_STRIP_HOT_RELOAD"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		PackageName:    project.DefaultPackageName,
		LogLevel:       "info",
		HotReloadFile:  "App/index.tsx",
		StripHotReload: true,
	}
}

// HotReloadTarget is the file the hot-reload wrapper is stripped from, or
// empty when stripping is off.
func (c Config) HotReloadTarget() string {
	if !c.StripHotReload {
		return ""
	}
	return c.HotReloadFile
}
