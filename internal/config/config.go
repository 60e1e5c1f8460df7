// Package config handles scenejoin configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenejoin/internal/optimize"
)

// ErrInvalid reports a configuration value out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all run settings.
type Config struct {
	Join     JoinConfig     `yaml:"join" toml:"join"`
	Optimize OptimizeConfig `yaml:"optimize" toml:"optimize"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// JoinConfig holds inputs, output and merge policy.
type JoinConfig struct {
	Models  []string  `yaml:"models,omitempty" toml:"models,omitempty"`
	Anims   []string  `yaml:"anims,omitempty" toml:"anims,omitempty"`
	Offsets []float64 `yaml:"offsets,omitempty" toml:"offsets,omitempty"` // One per animation file
	Output  string    `yaml:"output" toml:"output"`

	ContainerLevel int `yaml:"container_level" toml:"container_level"` // 0-3
	ValidateLevel  int `yaml:"validate_level" toml:"validate_level"`   // 0-2

	Positions       bool    `yaml:"positions" toml:"positions"`
	Normals         bool    `yaml:"normals" toml:"normals"`
	GenerateNormals bool    `yaml:"generate_normals" toml:"generate_normals"`
	NoUVs           bool    `yaml:"no_uvs" toml:"no_uvs"`
	FormNameSpaces  bool    `yaml:"form_name_spaces" toml:"form_name_spaces"`
	GroupByInstance bool    `yaml:"group_by_instance" toml:"group_by_instance"`
	NoReplace       bool    `yaml:"no_replace" toml:"no_replace"`
	ForceNoMatch    bool    `yaml:"force_no_match" toml:"force_no_match"`
	PassNoMatch     bool    `yaml:"pass_no_match" toml:"pass_no_match"`
	NoLoadOpt       bool    `yaml:"no_load_opt" toml:"no_load_opt"`
	NoBlockCheck    bool    `yaml:"no_block_check" toml:"no_block_check"`
	ForceJoin       bool    `yaml:"force_join" toml:"force_join"`
	Direct          bool    `yaml:"direct" toml:"direct"`
	ProjectName     string  `yaml:"project_name" toml:"project_name"`
	ScaleFactor     float32 `yaml:"scale_factor" toml:"scale_factor"`
}

// OptimizeConfig holds the optimization level and its thresholds.
type OptimizeConfig struct {
	Level      int                 `yaml:"level" toml:"level"` // 0-4
	Thresholds optimize.Thresholds `yaml:"thresholds" toml:"thresholds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Join: JoinConfig{
			ContainerLevel: 1,
			ValidateLevel:  1,
			ScaleFactor:    1,
		},
		Optimize: OptimizeConfig{
			Level:      0,
			Thresholds: optimize.DefaultThresholds(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks ranges and list cardinalities.
func (c *Config) Validate() error {
	j := c.Join
	switch {
	case len(j.Anims) == 0:
		return fmt.Errorf("%w: at least one animation file is required", ErrInvalid)
	case j.Output == "":
		return fmt.Errorf("%w: output path is required", ErrInvalid)
	case len(j.Offsets) != 0 && len(j.Offsets) != len(j.Anims):
		return fmt.Errorf("%w: %d offsets for %d animation files", ErrInvalid, len(j.Offsets), len(j.Anims))
	case j.ContainerLevel < 0 || j.ContainerLevel > 3:
		return fmt.Errorf("%w: container level %d not in [0,3]", ErrInvalid, j.ContainerLevel)
	case j.ValidateLevel < 0 || j.ValidateLevel > 2:
		return fmt.Errorf("%w: validation level %d not in [0,2]", ErrInvalid, j.ValidateLevel)
	case c.Optimize.Level < 0 || c.Optimize.Level > optimize.MaxLevel:
		return fmt.Errorf("%w: optimization level %d not in [0,%d]", ErrInvalid, c.Optimize.Level, optimize.MaxLevel)
	case j.ScaleFactor <= 0:
		return fmt.Errorf("%w: scale factor must be positive, got %g", ErrInvalid, j.ScaleFactor)
	case j.Direct && (len(j.Anims) != 1 || len(j.Models) > 1):
		return fmt.Errorf("%w: direct transfer takes one animation and at most one model", ErrInvalid)
	}

	t := c.Optimize.Thresholds
	switch {
	case t.MaxNormalPools < 1:
		return fmt.Errorf("%w: max_normal_pools must be at least 1", ErrInvalid)
	case t.AgreementFraction < 0 || t.AgreementFraction >= 1:
		return fmt.Errorf("%w: agreement_fraction %g not in [0,1)", ErrInvalid, t.AgreementFraction)
	case t.MinNormalDot < -1 || t.MinNormalDot > 1:
		return fmt.Errorf("%w: min_normal_dot %g not in [-1,1]", ErrInvalid, t.MinNormalDot)
	case t.RigidSampleCount < 4:
		return fmt.Errorf("%w: rigid_sample_count must be at least 4", ErrInvalid)
	case t.RigidEpsilon <= 0:
		return fmt.Errorf("%w: rigid_epsilon must be positive", ErrInvalid)
	}
	return nil
}
