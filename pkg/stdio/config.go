package stdio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/stdiofile/pkg/fs"
)

// Config is the serialized form of stream defaults, read from a JSON file
// that may contain comments and trailing commas:
//
//	{
//	    // anonymous temp files go here
//	    "temp_dir": "/var/tmp",
//	    "buffer_size": 65536,
//	    "buffering": "line",   // full, line or none
//	    "perm": "0640",
//	    "atomic": true,
//	}
type Config struct {
	TempDir    string `json:"temp_dir,omitempty"`
	BufferSize int    `json:"buffer_size,omitempty"`
	Buffering  string `json:"buffering,omitempty"`
	Perm       string `json:"perm,omitempty"`
	Atomic     bool   `json:"atomic,omitempty"`
}

// Config errors.
var (
	ErrConfigRead    = errors.New("cannot read config file")
	ErrConfigInvalid = errors.New("invalid config file")
)

// LoadConfig reads and validates the config file at path using fsys
// (nil means the real filesystem).
func LoadConfig(fsys fs.FS, path string) (Config, error) {
	if fsys == nil {
		fsys = fs.NewReal()
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigRead, path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, nil
}

// ParseConfig parses JSONC config data and validates it.
func ParseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	if _, err := cfg.Options(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Options converts the config to [Options]. Unset fields keep their defaults.
func (c Config) Options() (Options, error) {
	var o Options

	o.TempDir = c.TempDir
	o.Atomic = c.Atomic

	if c.BufferSize < 0 {
		return Options{}, fmt.Errorf("buffer_size must not be negative: %d", c.BufferSize)
	}

	o.BufferSize = c.BufferSize

	switch c.Buffering {
	case "", "full":
		o.Buffering = BufferFull
	case "line":
		o.Buffering = BufferLine
	case "none":
		o.Buffering = BufferNone
	default:
		return Options{}, fmt.Errorf("buffering must be full, line or none: %q", c.Buffering)
	}

	if c.Perm != "" {
		perm, err := strconv.ParseUint(c.Perm, 8, 32)
		if err != nil || perm > 0o777 {
			return Options{}, fmt.Errorf("perm must be an octal permission like \"0644\": %q", c.Perm)
		}

		o.Perm = os.FileMode(perm)
	}

	return o, nil
}

// FromConfig validates c and returns an [Option] applying it on top of the
// options built so far. An invalid config returns an error wrapping
// [ErrConfigInvalid] and no Option.
func FromConfig(c Config) (Option, error) {
	co, err := c.Options()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	return func(o *Options) {
		if co.TempDir != "" {
			o.TempDir = co.TempDir
		}

		if co.BufferSize > 0 {
			o.BufferSize = co.BufferSize
		}

		if co.Perm != 0 {
			o.Perm = co.Perm
		}

		if c.Buffering != "" {
			o.Buffering = co.Buffering
		}

		if co.Atomic {
			o.Atomic = true
		}
	}, nil
}
