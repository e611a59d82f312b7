package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Hotkey  HotkeyConfig  `toml:"hotkey"`
	Capture CaptureConfig `toml:"capture"`
	LLM     LLMConfig     `toml:"llm"`
	Web     WebConfig     `toml:"web"`
}

type HotkeyConfig struct {
	Combo string `toml:"combo"`
}

type CaptureConfig struct {
	TimeoutMs      int `toml:"timeout_ms"`
	PollIntervalMs int `toml:"poll_interval_ms"`
	Retries        int `toml:"retries"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	Temperature float64 `toml:"temperature"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Combo: "alt+shift+s",
		},
		Capture: CaptureConfig{
			TimeoutMs:      1500,
			PollIntervalMs: 50,
			Retries:        3,
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Model:       "llama-3.3-70b-versatile",
			APIKey:      "",
			Temperature: 0.7,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8321,
		},
	}
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
	}

	configDir := filepath.Join(appData, "snipai")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the TOML file.
// If the file doesn't exist, it creates it with default values.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from an explicit path
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := save(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg := defaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to its default location
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return save(configPath, c)
}

// save writes the configuration to the TOML file
func save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Validate checks the fields the process cannot run without. A config that
// fails here is a fatal startup error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required; set it in the config file")
	}
	if _, err := ParseHotkey(c.Hotkey.Combo); err != nil {
		return fmt.Errorf("hotkey.combo %q is invalid: %w", c.Hotkey.Combo, err)
	}
	if c.Capture.TimeoutMs <= 0 || c.Capture.PollIntervalMs <= 0 {
		return fmt.Errorf("capture timings must be positive")
	}
	return nil
}

// KeyCombo represents a parsed keyboard combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   string
}

// ParseHotkey parses a hotkey combo string like "alt+shift+s": any set of
// modifiers joined by '+', ending in exactly one base key, case-insensitive.
func ParseHotkey(combo string) (KeyCombo, error) {
	var kc KeyCombo
	parts := strings.Split(strings.ToLower(combo), "+")

	if strings.TrimSpace(combo) == "" {
		return kc, fmt.Errorf("empty hotkey combo")
	}

	for i, part := range parts {
		part = strings.TrimSpace(part)

		isModifier := true
		switch part {
		case "ctrl", "control":
			kc.Ctrl = true
		case "shift":
			kc.Shift = true
		case "alt":
			kc.Alt = true
		case "win", "windows":
			kc.Win = true
		default:
			isModifier = false
		}

		if !isModifier {
			if i != len(parts)-1 {
				return kc, fmt.Errorf("unknown modifier: %s", part)
			}
			if part == "" {
				return kc, fmt.Errorf("missing base key in combo")
			}
			kc.Key = part
		}
	}

	if kc.Key == "" {
		return kc, fmt.Errorf("combo needs exactly one base key after the modifiers")
	}

	return kc, nil
}
