package qps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML form of a limiter configuration. Omitted capacity
// and max_concurrency keys select their defaults.
//
//	name: upstream-api
//	rate: 20
//	capacity: 40
//	max_concurrency: 8
//	initial_tokens: 0
//	report_every: "@every 30s"
type FileConfig struct {
	Name           string  `yaml:"name"`
	Rate           float64 `yaml:"rate"`
	Capacity       *int    `yaml:"capacity"`
	MaxConcurrency *int    `yaml:"max_concurrency"`
	InitialTokens  int     `yaml:"initial_tokens"`

	// ReportEvery is a cron spec for the throughput Reporter. Empty disables it.
	ReportEvery string `yaml:"report_every"`
}

// LoadConfig reads and validates a YAML limiter configuration file.
func LoadConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("qps: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML limiter configuration.
// Unknown keys are rejected.
func ParseConfig(data []byte) (FileConfig, error) {
	var fc FileConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("qps: parse config: %w", err)
	}

	if _, err := fc.Config(nil).withDefaults(); err != nil {
		return FileConfig{}, err
	}
	if fc.ReportEvery != "" {
		if _, err := parseSchedule(fc.ReportEvery); err != nil {
			return FileConfig{}, err
		}
	}
	return fc, nil
}

// Config converts the file form into a limiter Config.
func (fc FileConfig) Config(logger *zap.Logger) Config {
	return Config{
		Rate:           fc.Rate,
		Capacity:       fc.Capacity,
		MaxConcurrency: fc.MaxConcurrency,
		InitialTokens:  fc.InitialTokens,
		Name:           fc.Name,
		Logger:         logger,
	}
}
