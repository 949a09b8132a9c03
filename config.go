package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the input for a single run. At least one field must be non-empty;
// when both are set the URL wins and the ID field is ignored.
type Config struct {
	VideoURL string `json:"video_url"`
	VideoID  string `json:"video_id"`
}

// loadConfig reads and decodes a JSON config file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	return &cfg, nil
}

// validate rejects a config that supplies neither input field.
func (c *Config) validate() error {
	if c.VideoURL == "" && c.VideoID == "" {
		return fmt.Errorf("%w: video_url or video_id must be set", ErrInvalidConfig)
	}
	return nil
}

// resolveVideoID derives the canonical video ID from the config.
// The URL takes precedence; a bare video_id must still satisfy the ID shape.
func (c *Config) resolveVideoID() (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}

	if c.VideoURL != "" {
		return extractVideoID(c.VideoURL)
	}

	if !videoIDRe.MatchString(c.VideoID) {
		return "", fmt.Errorf("%w: %q does not match the video ID shape", ErrInvalidVideoID, c.VideoID)
	}
	return c.VideoID, nil
}
