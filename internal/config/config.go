package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	HTTPAddr    string `mapstructure:"http_addr" yaml:"http_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Ingestion and overview
	MaxRows     int `mapstructure:"max_rows" yaml:"max_rows"`
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	SampleRows  int `mapstructure:"sample_rows" yaml:"sample_rows"`

	// Charts
	DefaultBins int    `mapstructure:"default_bins" yaml:"default_bins"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
	EChartsURL  string `mapstructure:"echarts_url" yaml:"echarts_url"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Profiling report
	ReportCorrelations     bool    `mapstructure:"report_correlations" yaml:"report_correlations"`
	ReportOutlierThreshold float64 `mapstructure:"report_outlier_threshold" yaml:"report_outlier_threshold"`
}

// DefaultEChartsURL is the ECharts build loaded by interactive pages.
const DefaultEChartsURL = "https://cdn.jsdelivr.net/npm/echarts@5.5.1/dist/echarts.min.js"

var defaults = map[string]any{
	"http_addr":                "localhost:8501",
	"max_upload_mb":            200,
	"max_rows":                 0,
	"preview_rows":             10,
	"sample_rows":              5,
	"default_bins":             20,
	"chart_width":              900,
	"chart_height":             600,
	"echarts_url":              DefaultEChartsURL,
	"log_level":                "info",
	"log_format":               "console",
	"report_correlations":      true,
	"report_outlier_threshold": 3.5,
}

// ErrUnknownKey is returned by Set for keys that are not part of Global.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists the configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".insightigraph"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightigraph/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Defaults returns the built-in configuration, ignoring files and env.
// It panics if the built-in values do not decode into Global.
func Defaults() *Global {
	c, err := decodeDefaults(defaults)
	if err != nil {
		panic(err)
	}
	return c
}

func decodeDefaults(values map[string]any) (*Global, error) {
	v := viper.New()
	for k, d := range values {
		v.SetDefault(k, d)
	}
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode default config: %w", err)
	}
	return &c, nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an
// error; a malformed one is.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTIGRAPH")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns one key from its string form, as typed on the command line.
func (c *Global) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: expected a non-negative integer, got %q", key, value)
		}
		*dst = n
		return nil
	}
	switch key {
	case "http_addr":
		c.HTTPAddr = value
	case "max_upload_mb":
		return atoi(&c.MaxUploadMB)
	case "max_rows":
		return atoi(&c.MaxRows)
	case "preview_rows":
		return atoi(&c.PreviewRows)
	case "sample_rows":
		return atoi(&c.SampleRows)
	case "default_bins":
		if err := atoi(&c.DefaultBins); err != nil {
			return err
		}
		if c.DefaultBins < 5 || c.DefaultBins > 100 {
			return fmt.Errorf("default_bins: must be between 5 and 100, got %d", c.DefaultBins)
		}
	case "chart_width":
		return atoi(&c.ChartWidth)
	case "chart_height":
		return atoi(&c.ChartHeight)
	case "echarts_url":
		c.EChartsURL = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "report_correlations":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		c.ReportCorrelations = b
	case "report_outlier_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s: expected a positive number, got %q", key, value)
		}
		c.ReportOutlierThreshold = f
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}
