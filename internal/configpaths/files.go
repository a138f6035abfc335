// Package configpaths resolves the daemon's on-disk locations: config file
// candidates, the control socket path, and the per-profile directory.
package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDir returns the platform-specific configuration directory.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, "scc"), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "scc"), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "scc"), nil
		}
		return "", errors.New("HOME not set")
	}
}

// DefaultSocketPath returns "<config_dir>/daemon.socket" per the external
// interfaces section.
func DefaultSocketPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daemon.socket"), nil
}

// DefaultConfigPath returns the default config file path for the given
// format ("json", "yaml"/"yml", or "toml").
func DefaultConfigPath(format string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	ext := "json"
	switch format {
	case "yaml", "yml":
		ext = "yaml"
	case "toml":
		ext = "toml"
	}
	return filepath.Join(dir, "config.c."+ext), nil
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// ConfigCandidatePaths builds candidate config paths per format, in search
// order: an explicit user path (routed by its extension), the working
// directory, the config home, then /etc/scc on Unix.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".json":
			add(&jsonPaths, userPath)
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	wd, _ := os.Getwd()
	add(&jsonPaths, filepath.Join(wd, "config.c.json"))
	add(&yamlPaths, filepath.Join(wd, "config.c.yaml"))
	add(&yamlPaths, filepath.Join(wd, "config.c.yml"))
	add(&tomlPaths, filepath.Join(wd, "config.c.toml"))

	if dir, err := DefaultConfigDir(); err == nil {
		add(&jsonPaths, filepath.Join(dir, "config.c.json"))
		add(&yamlPaths, filepath.Join(dir, "config.c.yaml"))
		add(&yamlPaths, filepath.Join(dir, "config.c.yml"))
		add(&tomlPaths, filepath.Join(dir, "config.c.toml"))
	}

	if runtime.GOOS != "windows" {
		add(&jsonPaths, "/etc/scc/config.c.json")
		add(&yamlPaths, "/etc/scc/config.c.yaml")
		add(&tomlPaths, "/etc/scc/config.c.toml")
	}

	return
}
