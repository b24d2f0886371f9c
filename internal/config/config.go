package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads and strictly decodes the config at path. Unknown fields are
// rejected so typos fail loudly instead of silently polling nothing.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated documents)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configs the engine would refuse or quietly misread.
func (c *Config) Validate() error {
	r := c.RateLimit
	if r.Days < 0 || r.Hours < 0 || r.Minutes < 0 || r.Seconds < 0 {
		return fmt.Errorf("rate_limit: components must be >= 0")
	}
	if c.RetryLimit != nil && *c.RetryLimit < 0 {
		return fmt.Errorf("retry_limit must be >= 0, got %d", *c.RetryLimit)
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}

	for i, ep := range c.Endpoints {
		if strings.TrimSpace(ep.URL) == "" {
			return fmt.Errorf("endpoints[%d]: url is required", i)
		}
		switch ep.Parser {
		case "strip":
			// no extra fields
		case "regexp":
			if ep.Pattern == "" {
				return fmt.Errorf("endpoints[%d]: regexp parser needs a pattern", i)
			}
		case "css":
			if ep.Selector == "" {
				return fmt.Errorf("endpoints[%d]: css parser needs a selector", i)
			}
		default:
			return fmt.Errorf("endpoints[%d]: unknown parser %q", i, ep.Parser)
		}
	}
	return nil
}
