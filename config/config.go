// Package config loads the YAML file that configures a wasinn host: the
// inference backend and its limits, the image helper, logging and the guest
// module's WASI environment.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wasinn-dev/wasinn-sdk/backend/echo"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

// Config is the root of a host configuration file.
type Config struct {
	Guest GuestConfig `yaml:"guest" json:"guest,omitempty"`
	Log   LogConfig   `yaml:"log" json:"log,omitempty"`
	Image ImageConfig `yaml:"image" json:"image,omitempty"`
	NN    NNConfig    `yaml:"nn" json:"nn,omitempty"`
}

// NNConfig configures the wasi_ephemeral_nn host module.
type NNConfig struct {
	Backend      string   `yaml:"backend" json:"backend,omitempty" validate:"oneof=echo" jsonschema:"enum=echo,default=echo"`
	Encodings    []string `yaml:"encodings" json:"encodings,omitempty" validate:"dive,graphencoding" jsonschema:"description=Graph encodings the backend accepts; empty means all"`
	Targets      []string `yaml:"targets" json:"targets,omitempty" validate:"dive,executiontarget" jsonschema:"description=Execution targets the backend accepts; empty means cpu"`
	MaxBlobBytes uint64   `yaml:"max_blob_bytes" json:"max_blob_bytes,omitempty" jsonschema:"description=Upper bound on the summed size of one load call's blobs"`
	MaxGraphs    int      `yaml:"max_graphs" json:"max_graphs,omitempty" validate:"gte=0"`
	MaxContexts  int      `yaml:"max_contexts" json:"max_contexts,omitempty" validate:"gte=0"`
}

// ImageConfig configures the image_to_tensor and convert_image helpers.
type ImageConfig struct {
	Roots        []string `yaml:"roots" json:"roots,omitempty" validate:"dive,required" jsonschema:"description=Directories guests may read images from"`
	ColorOrder   string   `yaml:"color_order" json:"color_order,omitempty" validate:"omitempty,oneof=bgr rgb" jsonschema:"enum=bgr,enum=rgb"`
	Layout       string   `yaml:"layout" json:"layout,omitempty" validate:"omitempty,oneof=interleaved planar" jsonschema:"enum=interleaved,enum=planar"`
	MaxFileBytes int64    `yaml:"max_file_bytes" json:"max_file_bytes,omitempty" validate:"gte=0"`
	Enabled      bool     `yaml:"enabled" json:"enabled,omitempty"`
}

// LogConfig configures host logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" json:"format,omitempty" validate:"omitempty,oneof=text json" jsonschema:"enum=text,enum=json"`
}

// GuestConfig configures the WASI environment of the guest module.
type GuestConfig struct {
	Env              map[string]string `yaml:"env" json:"env,omitempty"`
	Name             string            `yaml:"name" json:"name,omitempty"`
	Args             []string          `yaml:"args" json:"args,omitempty"`
	Mounts           []Mount           `yaml:"mounts" json:"mounts,omitempty" validate:"dive"`
	MemoryLimitPages uint32            `yaml:"memory_limit_pages" json:"memory_limit_pages,omitempty" validate:"lte=65536"`
}

// Mount exposes a host directory to the guest.
type Mount struct {
	Host     string `yaml:"host" json:"host" validate:"required"`
	Guest    string `yaml:"guest" json:"guest" validate:"required,startswith=/"`
	ReadOnly bool   `yaml:"read_only" json:"read_only,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		NN: NNConfig{
			Backend:      "echo",
			MaxBlobBytes: hostfuncs.DefaultMaxBlobBytes,
		},
		Image: ImageConfig{
			Roots:        []string{"."},
			ColorOrder:   "bgr",
			Layout:       "interleaved",
			MaxFileBytes: hostfuncs.DefaultMaxImageFileBytes,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Guest: GuestConfig{
			Name: "guest",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &nnerrors.FileError{Err: err, Path: path}
	}
	return Parse(data)
}

// Validate checks the struct tags and reports the first failure as a
// ConfigError.
func (c *Config) Validate() error {
	return validateStruct(c)
}

// NewBackend builds the inference backend named by the configuration.
func (c NNConfig) NewBackend() (ports.Backend, error) {
	switch c.Backend {
	case "", "echo":
	default:
		return nil, &nnerrors.ConfigError{Field: "Backend", Err: fmt.Errorf("unknown backend %q", c.Backend)}
	}

	var opts []echo.Option
	if len(c.Encodings) > 0 {
		encs := make([]entities.GraphEncoding, 0, len(c.Encodings))
		for _, s := range c.Encodings {
			e, err := entities.ParseGraphEncoding(s)
			if err != nil {
				return nil, &nnerrors.ConfigError{Field: "Encodings", Err: err}
			}
			encs = append(encs, e)
		}
		opts = append(opts, echo.WithEncodings(encs...))
	}
	if len(c.Targets) > 0 {
		targets := make([]entities.ExecutionTarget, 0, len(c.Targets))
		for _, s := range c.Targets {
			t, err := entities.ParseExecutionTarget(s)
			if err != nil {
				return nil, &nnerrors.ConfigError{Field: "Targets", Err: err}
			}
			targets = append(targets, t)
		}
		opts = append(opts, echo.WithTargets(targets...))
	}
	return echo.New(opts...), nil
}

// Options returns the hostfuncs.NN options for the configured limits.
func (c NNConfig) Options(logger *slog.Logger) []hostfuncs.NNOption {
	opts := []hostfuncs.NNOption{hostfuncs.WithNNLogger(logger)}
	if c.MaxBlobBytes > 0 {
		opts = append(opts, hostfuncs.WithMaxBlobBytes(c.MaxBlobBytes))
	}
	if c.MaxGraphs > 0 {
		opts = append(opts, hostfuncs.WithMaxGraphs(c.MaxGraphs))
	}
	if c.MaxContexts > 0 {
		opts = append(opts, hostfuncs.WithMaxContexts(c.MaxContexts))
	}
	return opts
}

// Options returns the hostfuncs.Image options. The path policy admits only
// the configured roots.
func (c ImageConfig) Options(logger *slog.Logger) []hostfuncs.ImageOption {
	opts := []hostfuncs.ImageOption{
		hostfuncs.WithImageLogger(logger),
		hostfuncs.WithPathPolicy(hostfuncs.NewPathPolicy(c.Roots)),
	}
	if c.ColorOrder == "rgb" {
		opts = append(opts, hostfuncs.WithColorOrder(hostfuncs.ColorRGB))
	}
	if c.Layout == "planar" {
		opts = append(opts, hostfuncs.WithMemoryLayout(hostfuncs.LayoutPlanar))
	}
	if c.MaxFileBytes > 0 {
		opts = append(opts, hostfuncs.WithMaxImageFileBytes(c.MaxFileBytes))
	}
	return opts
}

// SlogLevel maps the configured level name to a slog level.
func (c LogConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds a logger writing to w in the configured format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
