// Package config loads the optional asm6809.toml configuration file,
// grounded on the teacher's config package: a typed struct decoded with
// github.com/BurntSushi/toml, a platform-specific default path, and
// Load/Save helpers that fall back to built-in defaults when no file is
// present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config carries the assembler-wide tunables that CLI flags override.
type Config struct {
	// Assemble settings: the pass driver and macro/include nesting.
	Assemble struct {
		MaxPasses     int  `toml:"max_passes"`
		MaxMacroDepth int  `toml:"max_macro_depth"`
		ISA6309       bool `toml:"isa_6309"`
	} `toml:"assemble"`

	// Listing settings: the per-line address/bytes/source rendering.
	Listing struct {
		BytesPerRow int  `toml:"bytes_per_row"`
		UpperCase   bool `toml:"upper_case_hex"`
	} `toml:"listing"`

	// Output settings: the default object-file format when no -B/-D/
	// -C/-S/-H flag is given.
	Output struct {
		DefaultFormat string `toml:"default_format"` // bin, dragondos, coco, srec, hex
		PadSections   bool   `toml:"pad_sections"`
	} `toml:"output"`
}

// DefaultConfig returns a configuration with the spec's built-in
// defaults (MaxPasses = engine.MaxPasses, etc; this package doesn't
// import engine to avoid a cycle, so the numbers are duplicated here
// and kept in sync by hand, matching the teacher's own
// vm.StackSegmentSize-style cross-package default duplication).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assemble.MaxPasses = 10
	cfg.Assemble.MaxMacroDepth = 8
	cfg.Assemble.ISA6309 = false

	cfg.Listing.BytesPerRow = 6
	cfg.Listing.UpperCase = true

	cfg.Output.DefaultFormat = "bin"
	cfg.Output.PadSections = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "asm6809")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "asm6809.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "asm6809")

	default:
		return "asm6809.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "asm6809.toml"
	}

	return filepath.Join(configDir, "asm6809.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, returning
// built-in defaults untouched when the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
