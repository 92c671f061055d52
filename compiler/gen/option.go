package gen

import (
	"errors"
	"time"
)

// Config holds the generation settings shared by the graph and every
// fragment generator.
type Config struct {
	// ProjectID identifies the project in artifact comments.
	ProjectID string
	// BotName is the display name embedded in the generated program.
	BotName string
	// Target is the output directory for written artifacts. Optional:
	// Generate returns artifacts in memory regardless.
	Target string
	// Persistence enables the durable per-user store in the emitted
	// program. Without it the program operates on transient state only.
	Persistence bool
	// VerboseComments interleaves explanatory comments in the emitted
	// program. Toggling it never changes code semantics.
	VerboseComments bool
	// KeyboardColumns overrides the column-count heuristic when > 0.
	KeyboardColumns int
	// ColumnThreshold is the button count above which the heuristic
	// switches from one column to two. Defaults to 2.
	ColumnThreshold int
	// Clock supplies the generation timestamp. Defaults to time.Now;
	// tests pin it for byte-identical output.
	Clock func() time.Time
	// Features toggle optional generation capabilities.
	Features []Feature
	// Hooks wrap the generator invocation.
	Hooks []Hook
}

func (c *Config) defaults() {
	if c.BotName == "" {
		c.BotName = "Telegram Bot"
	}
	if c.ColumnThreshold <= 0 {
		c.ColumnThreshold = 2
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// FeatureEnabled reports whether the named feature was requested or is
// on by default.
func (c *Config) FeatureEnabled(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	for _, f := range allFeatures {
		if f.Name == name {
			return f.Default
		}
	}
	return false
}

// Option configures code generation.
type Option func(*Config) error

// WithProjectID sets the project identifier embedded in artifacts.
func WithProjectID(id string) Option {
	return func(c *Config) error {
		c.ProjectID = id
		return nil
	}
}

// WithBotName sets the bot display name.
func WithBotName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("BotName", nil, "bot name cannot be empty")
		}
		c.BotName = name
		return nil
	}
}

// WithTarget sets the output directory for written artifacts.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithPersistence enables the durable per-user store in the emitted
// program.
func WithPersistence(enabled bool) Option {
	return func(c *Config) error {
		c.Persistence = enabled
		return nil
	}
}

// WithVerboseComments toggles explanatory comments in the emitted
// program. Commentary only; never alters code semantics.
func WithVerboseComments(enabled bool) Option {
	return func(c *Config) error {
		c.VerboseComments = enabled
		return nil
	}
}

// WithKeyboardColumns overrides the keyboard column heuristic with a
// fixed column count.
func WithKeyboardColumns(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("KeyboardColumns", n, "column count cannot be negative")
		}
		c.KeyboardColumns = n
		return nil
	}
}

// WithColumnThreshold sets the button count above which keyboards use
// two columns.
func WithColumnThreshold(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("ColumnThreshold", n, "threshold must be positive")
		}
		c.ColumnThreshold = n
		return nil
	}
}

// WithClock sets the timestamp source for generation comments.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) error {
		if clock == nil {
			return NewConfigError("Clock", nil, "clock cannot be nil")
		}
		c.Clock = clock
		return nil
	}
}

// WithFeatures enables specific generation features.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		c.Features = append(c.Features, features...)
		return nil
	}
}

// WithHooks adds generation hooks. Hooks wrap the generator and run in
// declaration order.
func WithHooks(hooks ...Hook) Option {
	return func(c *Config) error {
		c.Hooks = append(c.Hooks, hooks...)
		return nil
	}
}

// Apply applies options to the config. It returns the first error
// encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	c.defaults()
	return c, nil
}

// MustNewConfig creates a new Config with the given options and panics
// if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
