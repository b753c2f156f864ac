package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Port             string   `yaml:"port"`
	Env              string   `yaml:"env"`
	LogLevel         string   `yaml:"log_level"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	RecordStore      string   `yaml:"record_store"`
	PublicBaseURL    string   `yaml:"public_base_url"`
	CompletionPolicy string   `yaml:"completion_policy"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	ObjectStore struct {
		Type     string `yaml:"type"`
		LocalDir string `yaml:"local_dir"`
		Region   string `yaml:"region"`
		Bucket   string `yaml:"bucket"`
		Prefix   string `yaml:"prefix"`
		KMSKeyID string `yaml:"kms_key_id"`
	} `yaml:"object_store"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
		Issuer string `yaml:"issuer"`
	} `yaml:"jwt"`

	Google struct {
		ClientID      string `yaml:"client_id"`
		ClientSecret  string `yaml:"client_secret"`
		RedirectURL   string `yaml:"redirect_url"`
		UIRedirectURL string `yaml:"ui_redirect_url"`
	} `yaml:"google"`
}

// readFile parses the YAML config file at path. An empty path yields zero values.
func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}

// LoadFile is like Load but fails on an unreadable config file.
func LoadFile(path string) (Config, error) {
	fc, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	return fromSources(fc), nil
}
