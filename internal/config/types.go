package config

// Config is the daemon configuration.
//
// All fields have workable defaults; an empty file yields a daemon that
// polls nothing but starts cleanly.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Storage StorageConfig `json:"storage,omitempty"`

	// RateLimit is the minimum interval between continuous passes.
	// Defaults to 10 minutes when every component is zero/omitted.
	RateLimit RateLimitConfig `json:"rate_limit,omitempty"`

	// Cron, when set, replaces rate_limit pacing with a cron schedule.
	// Accepts 5-field and 6-field (with seconds) expressions.
	Cron string `json:"cron,omitempty"`

	// RetryLimit is the number of extra attempts per registration per pass.
	// A pointer so an explicit 0 is distinguishable from "omitted" (5).
	RetryLimit *int `json:"retry_limit,omitempty"`

	// WaitBetweenRetries defaults to true when omitted.
	WaitBetweenRetries *bool `json:"wait_between_retries,omitempty"`

	Endpoints []EndpointConfig `json:"endpoints"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console *bool         `json:"console,omitempty"` // default true
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig selects the cache persistence backend.
// Driver: "none" (default), "file", or "sqlite".
type StorageConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

type RateLimitConfig struct {
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

func (r RateLimitConfig) IsZero() bool {
	return r.Days == 0 && r.Hours == 0 && r.Minutes == 0 && r.Seconds == 0
}

// EndpointConfig is one polled endpoint with a named parser.
//
// Parser kinds:
//   - "strip":  trim whitespace, whole body is the value
//   - "regexp": first capture group of Pattern (or the full match)
//   - "css":    text of the first node matching Selector
type EndpointConfig struct {
	URL      string `json:"url"`
	Parser   string `json:"parser"`
	Pattern  string `json:"pattern,omitempty"`  // regexp only
	Selector string `json:"selector,omitempty"` // css only
}
