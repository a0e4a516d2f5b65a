package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Logger struct {
	Level string `yaml:"level"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Mapping struct {
	// Decimals determines whether numeric/decimal columns are read as decimals (default true)
	Decimals *bool `yaml:"decimals"`
	// BoolColumns are columns read as booleans (e.g. MySql TINYINT)
	BoolColumns []string `yaml:"bool_columns"`
	// Exclude are columns left out of the output
	Exclude []string `yaml:"exclude"`
	// OmitNull are columns left out of the output when they are null
	OmitNull []string `yaml:"omit_null"`
}

type Config struct {
	Logger   Logger   `yaml:"logger"`
	Database Database `yaml:"database"`
	Mapping  Mapping  `yaml:"mapping"`
}

// UseDecimals returns whether numeric/decimal columns are read as decimals
func (c *Config) UseDecimals() bool {
	return c.Mapping.Decimals == nil || *c.Mapping.Decimals
}

// Validate checks that the config can be used to open a database
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return errors.New("database.driver is required")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	return nil
}

func Default() *Config {
	return &Config{
		Logger: Logger{Level: "info"},
	}
}

func Parse(bs []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, err
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	return c, nil
}

func NewFromFile(fpath string) (*Config, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	return Parse(bs)
}
