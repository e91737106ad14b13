// Package config provides the configuration structure for the script annotator.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"

	"github.com/book-expert/script-annotator/internal/generation"
	"github.com/book-expert/script-annotator/internal/transcript"
)

const defaultTimeoutSeconds = 300

// ErrNATSURLEmpty indicates that the NATS url is missing for the service.
var ErrNATSURLEmpty = errors.New("nats url cannot be empty")

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL               string `toml:"url"`
	AnnotationSubject string `toml:"annotation_subject"`
	TranscriptBucket  string `toml:"transcript_bucket"`
	DocumentBucket    string `toml:"document_bucket"`
}

// GenerationConfig holds the settings for the remote generation service.
type GenerationConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TranscriptConfig selects the structural marker convention of incoming scripts.
type TranscriptConfig struct {
	MarkerStyle string `toml:"marker_style"`
}

// RenderConfig holds terminal rendering preferences.
type RenderConfig struct {
	Width int  `toml:"width"`
	Plain bool `toml:"plain"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	Generation GenerationConfig `toml:"generation"`
	Transcript TranscriptConfig `toml:"transcript"`
	Render     RenderConfig     `toml:"render"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration and applies defaults.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fills defaults for optional settings and rejects invalid ones.
func (c *Config) Validate() error {
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = generation.DefaultBaseURL
	}

	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = defaultTimeoutSeconds
	}

	style, err := transcript.ParseMarkerStyle(c.Transcript.MarkerStyle)
	if err != nil {
		return fmt.Errorf("invalid transcript configuration: %w", err)
	}

	c.Transcript.MarkerStyle = string(style)

	return nil
}

// ValidateService additionally checks the settings the NATS service needs.
func (c *Config) ValidateService() error {
	if c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	return nil
}
