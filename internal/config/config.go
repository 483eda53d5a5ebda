// Package config loads application configuration from environment variables
// and an optional .ciannotate.yaml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// ProjectFileName is the project file searched for in the working directory
// and its parents.
const ProjectFileName = ".ciannotate.yaml"

// Config holds the application configuration.
type Config struct {
	// GitHub Actions context.
	GitHubToken  string
	GitHubAPIURL string // Empty means api.github.com.
	Repository   string // owner/repo
	HeadSHA      string
	EventPath    string
	Workspace    string // Root that stack trace paths are made relative to.

	// Report and badge behavior.
	CheckName  string
	Metric     model.Metric
	Thresholds string
	VendorDirs []string

	// Serve mode and history.
	ListenAddr string
	DBPath     string // Empty disables history for report and badge.

	Debug bool

	// ProjectFile is the project file that was applied, if any.
	ProjectFile string
}

// HasGitHubCredentials returns true when a token and target repository are set.
func (c *Config) HasGitHubCredentials() bool {
	return c.GitHubToken != "" && c.Repository != ""
}

// projectFile is the YAML shape of .ciannotate.yaml.
type projectFile struct {
	CheckName  string   `yaml:"check_name"`
	Metric     string   `yaml:"metric"`
	Thresholds string   `yaml:"thresholds"`
	VendorDirs []string `yaml:"vendor_dirs"`
	Workspace  string   `yaml:"workspace"`
	ListenAddr string   `yaml:"listen_addr"`
	DBPath     string   `yaml:"db_path"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		CheckName:  model.DefaultCheckName,
		Metric:     model.MetricLines,
		Thresholds: model.DefaultThresholds,
		VendorDirs: []string{"node_modules"},
		ListenAddr: "127.0.0.1:8080",
	}
}

// Load builds the configuration from the working directory.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return LoadFrom(wd)
}

// LoadFrom applies, in increasing precedence: defaults, the nearest project
// file at or above dir, then environment variables. Variables read:
//
//	GITHUB_TOKEN (or CIANNOTATE_GITHUB_TOKEN), GITHUB_API_URL, GITHUB_REPOSITORY,
//	GITHUB_SHA, GITHUB_EVENT_PATH, GITHUB_WORKSPACE,
//	CIANNOTATE_CHECK_NAME, CIANNOTATE_METRIC, CIANNOTATE_THRESHOLDS,
//	CIANNOTATE_VENDOR_DIRS, CIANNOTATE_LISTEN_ADDR, CIANNOTATE_DB_PATH,
//	CIANNOTATE_DEBUG.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()
	cfg.Workspace = dir

	if path := findProjectFile(dir); path != "" {
		if err := cfg.applyProjectFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be verified while reading them.
func (c *Config) Validate() error {
	if _, err := model.ParseMetric(string(c.Metric)); err != nil {
		return fmt.Errorf("metric: %w", err)
	}
	if _, err := model.ParseBadgeColor(c.Thresholds); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if c.Workspace != "" && !filepath.IsAbs(c.Workspace) {
		abs, err := filepath.Abs(c.Workspace)
		if err != nil {
			return fmt.Errorf("workspace %q: %w", c.Workspace, err)
		}
		c.Workspace = abs
	}
	return nil
}

func (c *Config) applyProjectFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setString(&c.CheckName, pf.CheckName)
	setString((*string)(&c.Metric), pf.Metric)
	setString(&c.Thresholds, pf.Thresholds)
	setString(&c.ListenAddr, pf.ListenAddr)
	if pf.DBPath != "" {
		c.DBPath = resolveFrom(filepath.Dir(path), pf.DBPath)
	}
	if pf.Workspace != "" {
		c.Workspace = resolveFrom(filepath.Dir(path), pf.Workspace)
	}
	if len(pf.VendorDirs) > 0 {
		c.VendorDirs = pf.VendorDirs
	}

	c.ProjectFile = path
	return nil
}

func (c *Config) applyEnv() error {
	c.GitHubToken = os.Getenv("GITHUB_TOKEN")
	if v, ok := os.LookupEnv("CIANNOTATE_GITHUB_TOKEN"); ok && v != "" {
		c.GitHubToken = v
	}
	c.GitHubAPIURL = os.Getenv("GITHUB_API_URL")
	c.Repository = os.Getenv("GITHUB_REPOSITORY")
	c.HeadSHA = os.Getenv("GITHUB_SHA")
	c.EventPath = os.Getenv("GITHUB_EVENT_PATH")

	lookup(&c.Workspace, "GITHUB_WORKSPACE")
	lookup(&c.CheckName, "CIANNOTATE_CHECK_NAME")
	lookup((*string)(&c.Metric), "CIANNOTATE_METRIC")
	lookup(&c.Thresholds, "CIANNOTATE_THRESHOLDS")
	lookup(&c.ListenAddr, "CIANNOTATE_LISTEN_ADDR")
	lookup(&c.DBPath, "CIANNOTATE_DB_PATH")

	if v, ok := os.LookupEnv("CIANNOTATE_VENDOR_DIRS"); ok && v != "" {
		c.VendorDirs = splitList(v)
	}

	if v, ok := os.LookupEnv("CIANNOTATE_DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CIANNOTATE_DEBUG has invalid boolean %q: %w", v, err)
		}
		c.Debug = debug
	}

	return nil
}

// findProjectFile looks for the project file in dir and its parents.
func findProjectFile(dir string) string {
	for {
		path := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func lookup(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func resolveFrom(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
