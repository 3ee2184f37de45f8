package config

import (
	"os"
	"path/filepath"
)

// ConfigPathEnv names the environment variable consulted by GetConfigPath
const ConfigPathEnv = "KEYWATCH_CONFIG_PATH"

// defaultConfigFiles are probed, in order, in each search location.
var defaultConfigFiles = []string{"keywatch.yaml", "keywatch.yml", "keywatch.json", "config.yaml", "config.json"}

// GetConfigPath determines the configuration file path based on command-line flags,
// environment variables, and default locations.
// Priority:
// 1. --config command-line flag
// 2. KEYWATCH_CONFIG_PATH environment variable
// 3. keywatch.{yaml,yml,json} then config.{yaml,json} in the current working directory
// 4. the same names in the executable's directory
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" && fileExists(configFilePathFlag) {
		return configFilePathFlag
	}

	if envPath := os.Getenv(ConfigPathEnv); envPath != "" && fileExists(envPath) {
		return envPath
	}

	cwd, errCwd := os.Getwd()
	exePath, errExe := os.Executable()
	exeDir := ""
	if errExe == nil {
		exeDir = filepath.Dir(exePath)
	}

	var locations []string
	if errCwd == nil {
		locations = append(locations, cwd)
	}
	if exeDir != "" && (errCwd != nil || exeDir != cwd) { // Avoid duplicate check if cwd is exeDir
		locations = append(locations, exeDir)
	}

	for _, loc := range locations {
		for _, file := range defaultConfigFiles {
			path := filepath.Join(loc, file)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
