// Package config resolves the pipeline configuration from defaults, an
// optional YAML file, environment variables, and flags — later sources win.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Config is the full knob surface of one run.
type Config struct {
	// NodesFile is the local descriptor list; missing file is a soft
	// failure (the run continues on subscription nodes alone).
	NodesFile string `yaml:"nodes_file"`
	OutputDir string `yaml:"output_dir"`

	// SubscriptionURLs are remote feeds, highest priority source first.
	SubscriptionURLs []string `yaml:"subscription_urls"`

	// Workers bounds concurrent in-flight probes.
	Workers int `yaml:"workers"`

	// TimeoutSec is the advisory overall timeout recorded into the report.
	// Individual probe requests carry their own fixed timeouts.
	TimeoutSec int `yaml:"timeout_sec"`

	// LatencyThresholdMS gates both latency acceptance and whether the
	// throughput protocol runs.
	LatencyThresholdMS int `yaml:"latency_threshold_ms"`

	// TestCount caps how many deduplicated nodes are probed (uniform
	// random sample); 0 probes everything.
	TestCount int `yaml:"test_count"`

	// TopN caps the subscription artifact.
	TopN int `yaml:"top_n"`

	// MinScore/MinSpeedKBps are the subscription quality floor.
	MinScore     float64 `yaml:"min_score"`
	MinSpeedKBps int     `yaml:"min_speed_kbps"`

	// SpeedLimitKBps caps aggregate throughput-probe bandwidth across all
	// workers; 0 disables the cap.
	SpeedLimitKBps int `yaml:"speed_limit_kbps"`

	// GeoIPDB switches geo lookup to a local mmdb file when set.
	GeoIPDB string `yaml:"geoip_db"`

	// GeoCacheSize bounds the geo lookup cache.
	GeoCacheSize int `yaml:"geo_cache_size"`
}

func Default() Config {
	return Config{
		NodesFile:          "Nodes",
		OutputDir:          "subscription",
		Workers:            3,
		TimeoutSec:         10,
		LatencyThresholdMS: 2000,
		TestCount:          0,
		TopN:               15,
		MinScore:           30,
		MinSpeedKBps:       100,
		GeoCacheSize:       512,
	}
}

type ConfigError struct {
	AppError model.AppError
	Cause    error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// LoadFile overlays a YAML config file on top of base. Unknown keys and
// multi-document files are rejected so typos fail loudly.
func LoadFile(path string, base Config) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{
			AppError: model.AppError{
				Code:    "CONFIG_READ_ERROR",
				Message: "读取配置文件失败",
				Stage:   "config",
				URL:     path,
			},
			Cause: err,
		}
	}

	out := base
	if err := yamlDecodeStrict(string(content), &out); err != nil {
		return Config{}, &ConfigError{
			AppError: model.AppError{
				Code:    "CONFIG_PARSE_ERROR",
				Message: "配置文件 YAML 解析失败",
				Stage:   "config",
				URL:     path,
			},
			Cause: err,
		}
	}
	return out, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return newValidateError("workers 必须为正整数")
	}
	if c.LatencyThresholdMS <= 0 {
		return newValidateError("latency_threshold_ms 必须为正整数")
	}
	if c.TopN <= 0 {
		return newValidateError("top_n 必须为正整数")
	}
	if c.TestCount < 0 {
		return newValidateError("test_count 不能为负数")
	}
	if c.GeoCacheSize <= 0 {
		return newValidateError("geo_cache_size 必须为正整数")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return newValidateError("output_dir 不能为空")
	}
	return nil
}

func newValidateError(message string) error {
	return &ConfigError{
		AppError: model.AppError{
			Code:    "CONFIG_VALIDATE_ERROR",
			Message: message,
			Stage:   "config",
		},
	}
}

// SplitSubscriptionList parses the &-separated subscription URL list used
// by both the CLI flag and the ONLINE_SUBSCRIPTION environment variable.
func SplitSubscriptionList(s string) []string {
	parts := strings.Split(s, "&")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}

	// Reject multi-document YAML to keep behavior deterministic.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
