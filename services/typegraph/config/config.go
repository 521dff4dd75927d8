// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads typegraph.yaml.
//
// Precedence, lowest first: DefaultConfig, the YAML file, a .env file in
// the working directory, TYPEGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/typegraph/services/typegraph/telemetry"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FileName is the configuration file looked up when no path is given.
const FileName = "typegraph.yaml"

// Config is the full typegraph configuration.
type Config struct {
	Analysis  AnalysisConfig   `yaml:"analysis"`
	Output    OutputConfig     `yaml:"output"`
	Store     StoreConfig      `yaml:"store"`
	API       APIConfig        `yaml:"api"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	LogLevel  string           `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogDir, when set, also writes JSON logs to a dated file there.
	LogDir string `yaml:"log_dir"`
}

// AnalysisConfig selects which files are read and how rules behave.
type AnalysisConfig struct {
	// Extensions are the file suffixes analysed, including the dot.
	Extensions []string `yaml:"extensions" validate:"min=1,dive,startswith=."`

	// Exclude lists path substrings that skip a file or directory.
	Exclude []string `yaml:"exclude"`

	// DisabledRules names rules the engines skip.
	DisabledRules []string `yaml:"disabled_rules"`

	// SkipSelfEdges drops relationships from a file to itself.
	SkipSelfEdges bool `yaml:"skip_self_edges"`

	// MaxFileSize caps the bytes read per file.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
}

// OutputConfig controls what an analysis writes.
type OutputConfig struct {
	// XML is a file or object URL for the relationship graph. Empty skips it.
	XML string `yaml:"xml"`

	// CondensedXML is a file or object URL for the condensed graph.
	CondensedXML string `yaml:"condensed_xml"`

	// Color is "auto", "always" or "never".
	Color string `yaml:"color" validate:"oneof=auto always never"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	Path     string `yaml:"path" validate:"required_without=InMemory"`
	InMemory bool   `yaml:"in_memory"`
}

// APIConfig configures typegraph serve.
type APIConfig struct {
	Address   string  `yaml:"address" validate:"required,hostname_port"`
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`
	CacheSize int     `yaml:"cache_size" validate:"gt=0"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{
			Extensions:  []string{".h", ".hpp", ".hh", ".hxx", ".cpp", ".cc", ".cxx"},
			Exclude:     []string{"/.git/", "/build/"},
			MaxFileSize: 10 * 1024 * 1024,
		},
		Output: OutputConfig{Color: "auto"},
		Store:  StoreConfig{Path: ".typegraph"},
		API: APIConfig{
			Address:   "localhost:8089",
			RateLimit: 20,
			Burst:     40,
			CacheSize: 16,
		},
		Telemetry: telemetry.DefaultConfig(),
		LogLevel:  "info",
	}
}

// Load returns DefaultConfig overlaid with the file at path, .env and the
// environment. A missing file is not an error when path is FileName, so
// a bare checkout runs on defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == FileName:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Canonical encodes the settings that change an analysis result. List
// order is ignored, so equal settings always encode to equal bytes.
func (a AnalysisConfig) Canonical() ([]byte, error) {
	c := AnalysisConfig{
		Extensions:    slices.Clone(a.Extensions),
		Exclude:       slices.Clone(a.Exclude),
		DisabledRules: slices.Clone(a.DisabledRules),
		SkipSelfEdges: a.SkipSelfEdges,
		MaxFileSize:   a.MaxFileSize,
	}
	slices.Sort(c.Extensions)
	slices.Sort(c.Exclude)
	slices.Sort(c.DisabledRules)
	return yaml.Marshal(c)
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("TYPEGRAPH_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_LOG_DIR"); ok {
		cfg.LogDir = v
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_EXTENSIONS"); ok {
		cfg.Analysis.Extensions = splitList(v)
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_EXCLUDE"); ok {
		cfg.Analysis.Exclude = splitList(v)
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_DISABLED_RULES"); ok {
		cfg.Analysis.DisabledRules = splitList(v)
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_SKIP_SELF_EDGES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: TYPEGRAPH_SKIP_SELF_EDGES: %v", ErrInvalidConfig, err)
		}
		cfg.Analysis.SkipSelfEdges = b
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_XML"); ok {
		cfg.Output.XML = v
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_STORE_PATH"); ok {
		cfg.Store.Path = v
	}
	if v, ok := os.LookupEnv("TYPEGRAPH_API_ADDRESS"); ok {
		cfg.API.Address = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
