package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Config is the top-level gateway configuration.
type Config struct {
	// Listen is the address the gateway binds to, e.g. ":8080".
	Listen string `yaml:"listen"`

	// Upstream is the base URL requests are proxied to after validation.
	Upstream string `yaml:"upstream"`

	// Spec is the path to the OpenAPI 3 document the gateway enforces.
	Spec string `yaml:"spec"`

	// ValidateRequest toggles request validation. Defaults to true.
	ValidateRequest *bool `yaml:"validate_request"`

	// ValidateResponse toggles response validation. Defaults to true.
	ValidateResponse *bool `yaml:"validate_response"`

	// PassthroughUnmatched forwards requests that match no documented path
	// instead of rejecting them with 404.
	PassthroughUnmatched bool `yaml:"passthrough_unmatched"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures the gateway's structured logging.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is the output format: text or json.
	Format string `yaml:"format"`
}

// Default returns the configuration the gateway runs with when no file is
// given. Spec and Upstream have no usable defaults and must be provided.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// RequestValidationEnabled reports whether request validation is on,
// defaulting to true when unset.
func (c *Config) RequestValidationEnabled() bool {
	return c.ValidateRequest == nil || *c.ValidateRequest
}

// ResponseValidationEnabled reports whether response validation is on,
// defaulting to true when unset.
func (c *Config) ResponseValidationEnabled() bool {
	return c.ValidateResponse == nil || *c.ValidateResponse
}

// Validate checks the configuration for a runnable gateway.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.Spec == "" {
		return errors.New("spec path is required")
	}
	if c.Upstream == "" {
		return errors.New("upstream URL is required")
	}
	u, err := url.Parse(c.Upstream)
	if err != nil {
		return fmt.Errorf("invalid upstream URL %q: %w", c.Upstream, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream URL %q must use http or https", c.Upstream)
	}
	if u.Host == "" {
		return fmt.Errorf("upstream URL %q has no host", c.Upstream)
	}
	return nil
}
