// Package config provides configuration loading and management for the
// patch reordering experiments. It handles loading configuration from
// YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// ImagePath is the sample image to decompose and reconstruct
		ImagePath string `yaml:"imagePath"`

		// Size is the expected square image edge length in pixels.
		// The decoded image must match this size exactly.
		Size int `yaml:"size"`
	} `yaml:"input"`

	// Patch parameters
	Patch struct {
		// Size is the square patch edge length in pixels
		Size int `yaml:"size"`

		// Pad enables zero-padding of images whose dimensions are not
		// exact multiples of the patch size
		Pad bool `yaml:"pad"`
	} `yaml:"patch"`

	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many goroutines to use for patch scoring
		NumWorkers int `yaml:"numWorkers"`

		// HistogramBins is the bin count for the entropy-family measures
		HistogramBins int `yaml:"histogramBins"`

		// Measures lists the measure identifiers to reconstruct under
		Measures []string `yaml:"measures"`

		// Ordering selects how scored patches map onto grid cells
		// (identity, ascending or descending)
		Ordering string `yaml:"ordering"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir is the directory where reconstructions are saved
		Dir string `yaml:"dir"`

		// MontageColumns is the grid width of the summary montage
		MontageColumns int `yaml:"montageColumns"`

		// SaveIndividual saves each reconstruction as its own image
		// in addition to the montage
		SaveIndividual bool `yaml:"saveIndividual"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default input parameters (the reference experiment uses
	// 224x224 samples cut into 56x56 patches)
	cfg.Input.Size = 224

	// Set default patch parameters
	cfg.Patch.Size = 56
	cfg.Patch.Pad = false

	// Set default processing parameters
	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.HistogramBins = 256
	cfg.Processing.Measures = []string{
		"KL", "MI", "CE", "L1", "L2", "MAX_NORM", "JE", "ENTROPY", "SSIM", "PSNR",
	}
	cfg.Processing.Ordering = "ascending"

	// Set default output parameters
	cfg.Output.Dir = "reconstructions"
	cfg.Output.MontageColumns = 5
	cfg.Output.SaveIndividual = false
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
