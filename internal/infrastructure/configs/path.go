package configs

import (
	"flag"
	"os"

	"github.com/2vw/equinox/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the
// --config flag, the EQUINOX_CONFIG env var, or a list of well-known
// candidates. An empty result means "defaults only", which is a valid
// way to run.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("EQUINOX_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/equinox/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
