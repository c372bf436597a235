package seeder

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds demo seeding settings.
type Config struct {
	Students         int    `yaml:"students"           env:"SEEDER_STUDENTS"           env-default:"24"`
	GradesPerStudent int    `yaml:"grades_per_student" env:"SEEDER_GRADES_PER_STUDENT" env-default:"4"`
	Year             int    `yaml:"year"               env:"SEEDER_YEAR"               env-default:"2024"`
	Seed             uint64 `yaml:"seed"               env:"SEEDER_SEED"               env-default:"1"`
	DryRun           bool   `yaml:"dry_run"            env:"SEEDER_DRY_RUN"`
}

// LoadConfig reads seeder configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("seeder config: read %s: %w", path, err)
			}
			return &cfg, cfg.validate()
		}
		return nil, fmt.Errorf("seeder config: file %s not found", path)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("seeder config: read env: %w", err)
	}

	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Students < 0 {
		return fmt.Errorf("seeder config: students must be >= 0, got %d", c.Students)
	}
	if c.GradesPerStudent < 0 || c.GradesPerStudent > len(demoSubjects) {
		return fmt.Errorf("seeder config: grades_per_student must be in [0, %d], got %d", len(demoSubjects), c.GradesPerStudent)
	}
	if c.Year < 1900 || c.Year > 2100 {
		return fmt.Errorf("seeder config: year must be in [1900, 2100], got %d", c.Year)
	}
	return nil
}
