package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/mitchellh/go-homedir"

	"svcman/internal/logger"
	"svcman/internal/services"
)

type Config struct {
	RegistryPath string `json:"registry_path"`
	Elevation    string `json:"elevation"`
	ServiceCtl   string `json:"service_ctl"`
	ComposeTool  string `json:"compose_tool"`
	Parallel     int    `json:"parallel"`
	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file"`
	Backup       bool   `json:"backup"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

func DefaultConfig() *Config {
	tools := services.DefaultToolchain()
	return &Config{
		RegistryPath: filepath.Join(baseDir(), "services.json"),
		Elevation:    tools.Elevation,
		ServiceCtl:   tools.ServiceCtl,
		ComposeTool:  tools.Compose,
		Parallel:     1,
		LogLevel:     "warn",
		LogFile:      "",
		Backup:       true,
	}
}

func baseDir() string {
	home, _ := homedir.Dir()
	return filepath.Join(home, ".svcman")
}

func GetConfigPath() string {
	return filepath.Join(baseDir(), "config.json")
}

func Load() *Config {
	cfgOnce.Do(func() {
		cfg = DefaultConfig()
		path := GetConfigPath()

		data, err := os.ReadFile(path)
		if err != nil {
			return
		}

		json.Unmarshal(data, cfg)
	})
	return cfg
}

func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func Get() *Config {
	return Load()
}

// Toolchain returns the external tools to shell out to.
func (c *Config) Toolchain() services.Toolchain {
	return services.Toolchain{
		Elevation:  c.Elevation,
		ServiceCtl: c.ServiceCtl,
		Compose:    c.ComposeTool,
	}
}

// GetRegistryPath returns the registry file with ~ expanded.
func (c *Config) GetRegistryPath() string {
	if c.RegistryPath == "" {
		return DefaultConfig().RegistryPath
	}
	if expanded, err := homedir.Expand(c.RegistryPath); err == nil {
		return expanded
	}
	return c.RegistryPath
}

func (c *Config) GetParallel() int {
	if c.Parallel <= 0 {
		return 1
	}
	if c.Parallel > 16 {
		return 16
	}
	return c.Parallel
}

// LoggerOptions maps the logging keys onto logger.Options.
func (c *Config) LoggerOptions() logger.Options {
	file := c.LogFile
	if expanded, err := homedir.Expand(file); err == nil {
		file = expanded
	}
	return logger.Options{Level: c.LogLevel, File: file}
}

// Keys lists every settable key.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Config, value string) error{
	"registry_path": func(c *Config, v string) error {
		if v == "" {
			return fmt.Errorf("registry_path must not be empty")
		}
		c.RegistryPath = v
		return nil
	},
	"elevation": func(c *Config, v string) error {
		c.Elevation = v
		return nil
	},
	"service_ctl": func(c *Config, v string) error {
		if v == "" {
			return fmt.Errorf("service_ctl must not be empty")
		}
		c.ServiceCtl = v
		return nil
	},
	"compose_tool": func(c *Config, v string) error {
		if v == "" {
			return fmt.Errorf("compose_tool must not be empty")
		}
		c.ComposeTool = v
		return nil
	},
	"parallel": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("parallel must be a positive integer")
		}
		c.Parallel = n
		return nil
	},
	"log_level": func(c *Config, v string) error {
		if !logger.ValidLevel(v) {
			return fmt.Errorf("log_level must be one of debug, info, warn, error")
		}
		c.LogLevel = v
		return nil
	},
	"log_file": func(c *Config, v string) error {
		c.LogFile = v
		return nil
	},
	"backup": func(c *Config, v string) error {
		c.Backup = v == "true" || v == "1"
		return nil
	},
}

// Set assigns value to key after validating it.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return set(c, value)
}
