// Package config loads srctl settings from a YAML file and SRCTL_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/logging"
	"github.com/jpfielding/dicomsr.go/pkg/report"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. SRCTL_LOG_LEVEL
const EnvPrefix = "SRCTL"

type Log struct {
	Level string             `mapstructure:"level" yaml:"level"`
	JSON  bool               `mapstructure:"json" yaml:"json"`
	File  logging.FileConfig `mapstructure:"file" yaml:"file"`
}

// Report holds the document level attributes written by encode
type Report struct {
	Use3D              bool   `mapstructure:"use_3d" yaml:"use_3d"`
	UIDPrefix          string `mapstructure:"uid_prefix" yaml:"uid_prefix"`
	Manufacturer       string `mapstructure:"manufacturer" yaml:"manufacturer"`
	SeriesDescription  string `mapstructure:"series_description" yaml:"series_description"`
	SeriesNumber       int    `mapstructure:"series_number" yaml:"series_number"`
	PersonObserverName string `mapstructure:"person_observer_name" yaml:"person_observer_name"`
	DeviceObserverUID  string `mapstructure:"device_observer_uid" yaml:"device_observer_uid"`
}

type Config struct {
	Log    Log    `mapstructure:"log" yaml:"log"`
	Report Report `mapstructure:"report" yaml:"report"`
}

// DefaultConfig is used for anything a file or the environment leaves unset
func DefaultConfig() *Config {
	return &Config{
		Log: Log{
			Level: "INFO",
			File: logging.FileConfig{
				MaxSizeMB:  100,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
		Report: Report{
			Manufacturer:      sr.DefaultManufacturer,
			SeriesDescription: sr.DefaultSeriesDescription,
			SeriesNumber:      sr.DefaultSeriesNumber,
		},
	}
}

// defaults registers every key so environment variables bind during Unmarshal
func defaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file.path", d.Log.File.Path)
	v.SetDefault("log.file.max_size_mb", d.Log.File.MaxSizeMB)
	v.SetDefault("log.file.max_backups", d.Log.File.MaxBackups)
	v.SetDefault("log.file.max_age_days", d.Log.File.MaxAgeDays)
	v.SetDefault("log.file.compress", d.Log.File.Compress)
	v.SetDefault("report.use_3d", d.Report.Use3D)
	v.SetDefault("report.uid_prefix", d.Report.UIDPrefix)
	v.SetDefault("report.manufacturer", d.Report.Manufacturer)
	v.SetDefault("report.series_description", d.Report.SeriesDescription)
	v.SetDefault("report.series_number", d.Report.SeriesNumber)
	v.SetDefault("report.person_observer_name", d.Report.PersonObserverName)
	v.SetDefault("report.device_observer_uid", d.Report.DeviceObserverUID)
}

// LoadConfig reads path, or srctl.yaml from the working directory and the
// user config directory when path is empty. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("srctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "srctl"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// SaveConfig writes the config as YAML
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Report.SeriesNumber < 0 {
		return fmt.Errorf("report.series_number must not be negative, got %d", c.Report.SeriesNumber)
	}
	if c.Report.PersonObserverName != "" && c.Report.DeviceObserverUID != "" {
		return errors.New("report: set person_observer_name or device_observer_uid, not both")
	}
	return nil
}

// EncodeOptions are the report options of the config
func (c *Config) EncodeOptions() report.Options {
	r := c.Report
	return report.Options{
		Use3D: r.Use3D,
		Report: sr.ReportOptions{
			UIDPrefix:          r.UIDPrefix,
			Manufacturer:       r.Manufacturer,
			SeriesDescription:  r.SeriesDescription,
			SeriesNumber:       r.SeriesNumber,
			PersonObserverName: r.PersonObserverName,
			DeviceObserverUID:  r.DeviceObserverUID,
		},
	}
}
