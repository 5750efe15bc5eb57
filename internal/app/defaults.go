package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment
// variables first.
//
//   - FRONTDOWN_CONFIG_PATH: config file location (default: ~/.config/frontdown.toml)
//   - FRONTDOWN_HOME: base directory for run history and logs (default: ~/.local/share/frontdown)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"history_db":  filepath.Join(baseDir, "history.db"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("FRONTDOWN_CONFIG_PATH"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "frontdown.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("FRONTDOWN_HOME"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "frontdown"), nil
}
