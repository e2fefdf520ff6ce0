package server

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/ije/gox/utils"
	"github.com/joho/godotenv"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"avatard/project"
)

// Config files looked up in the project root, first match wins.
var configFiles = []string{"avatard.config.json", "avatard.config.yaml", "avatard.config.yml"}

// LoadConfig reads the configuration for the project at root. A .env file in
// root is loaded into the environment first without overriding variables
// that are already set.
func LoadConfig(root string) (Config, error) {
	cfg := DefaultConfig()

	if dotenv := filepath.Join(root, ".env"); project.FileExists(dotenv) {
		if err := godotenv.Load(dotenv); err != nil {
			return cfg, zerr.With(zerr.Wrap(err, "invalid .env file"), "file", dotenv)
		}
	}

	for _, name := range configFiles {
		configFile := filepath.Join(root, name)
		if !project.FileExists(configFile) {
			continue
		}
		if err := parseConfigFile(configFile, &cfg); err != nil {
			return cfg, zerr.With(zerr.Wrap(err, "invalid config file"), "file", configFile)
		}
		break
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, zerr.Wrap(err, "parse env")
	}
	return cfg, nil
}

func parseConfigFile(filename string, cfg *Config) error {
	if filepath.Ext(filename) == ".json" {
		return utils.ParseJSONFile(filename, cfg)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
