package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type VocabConfig struct {
	MinCount  uint64 `yaml:"min_count"`
	MaxSize   int    `yaml:"max_size"`
	Lowercase bool   `yaml:"lowercase"`
}

type TrainingConfig struct {
	Model        string  `yaml:"model"`
	Dim          int     `yaml:"dim"`
	Window       int     `yaml:"window"`
	Sample       float64 `yaml:"sample"`
	HS           bool    `yaml:"hs"`
	Negative     int     `yaml:"negative"`
	Alpha        float64 `yaml:"alpha,omitempty"`
	Epochs       int     `yaml:"epochs"`
	Threads      int     `yaml:"threads,omitempty"`
	Seed         uint64  `yaml:"seed"`
	RandomWindow bool    `yaml:"random_window"`
	TableSize    int     `yaml:"table_size"`
}

type OutputConfig struct {
	Format  string `yaml:"format"`
	Classes int    `yaml:"classes,omitempty"`
}

type Config struct {
	Vocab    VocabConfig    `yaml:"vocab"`
	Training TrainingConfig `yaml:"training"`
	Output   OutputConfig   `yaml:"output"`
}

const (
	FormatText   = "text"
	FormatBinary = "binary"
)

func DefaultConfig() *Config {
	return &Config{
		Vocab: VocabConfig{
			MinCount: 5,
			MaxSize:  21_000_000,
		},
		Training: TrainingConfig{
			Model:        string(ModelCBOW),
			Dim:          100,
			Window:       5,
			Sample:       1e-3,
			HS:           false,
			Negative:     5,
			Epochs:       5,
			Seed:         1,
			RandomWindow: true,
			TableSize:    DefaultTableSize,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// LearningRate returns Alpha, or the model's customary starting rate when
// Alpha is unset.
func (c TrainingConfig) LearningRate() float64 {
	if c.Alpha > 0 {
		return c.Alpha
	}
	switch ModelType(c.Model) {
	case ModelCBOW, ModelPVDM:
		return 0.05
	default:
		return 0.025
	}
}

func (c TrainingConfig) Workers() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return DefaultThreads()
}

func (c TrainingConfig) Validate() error {
	if _, err := ParseModelType(c.Model); err != nil {
		return err
	}
	if c.Dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", c.Dim)
	}
	if c.Window < 0 {
		return fmt.Errorf("window must not be negative, got %d", c.Window)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.Negative < 0 {
		return fmt.Errorf("negative must not be negative, got %d", c.Negative)
	}
	if !c.HS && c.Negative == 0 {
		return fmt.Errorf("enable hierarchical softmax or negative sampling")
	}
	if c.Negative > 0 && c.TableSize <= 0 {
		return fmt.Errorf("table_size must be positive with negative sampling, got %d", c.TableSize)
	}
	if c.Sample < 0 {
		return fmt.Errorf("sample must not be negative, got %g", c.Sample)
	}
	return nil
}
