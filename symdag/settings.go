package symdag

import (
	"io"
	"log/slog"

	"github.com/cottand/symdag/expr"
	"github.com/cottand/symdag/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is everything Process can be told, as read from a YAML file.
type Settings struct {
	Session expr.Config `yaml:"session"`
	Check   Check       `yaml:"check"`
	Log     Log         `yaml:"log"`
	// EmitGo includes the generated Go source in the Result.
	EmitGo bool `yaml:"emit_go"`
	// Package is the package name of the generated Go source.
	Package string `yaml:"package"`
}

// Check configures the comparison of every canonical form, run as Go in
// an interpreter, against a direct evaluation of its input.
type Check struct {
	Enabled   bool    `yaml:"enabled"`
	Points    int     `yaml:"points"`
	Seed      uint64  `yaml:"seed"`
	Tolerance float64 `yaml:"tolerance"`
}

type Log struct {
	Level    string   `yaml:"level"`
	Sections []string `yaml:"sections"`
}

func DefaultSettings() Settings {
	return Settings{
		Session: expr.DefaultConfig(),
		Check: Check{
			Points:    16,
			Seed:      1,
			Tolerance: 1e-9,
		},
		Log:     Log{Level: "warn"},
		Package: "generated",
	}
}

// LoadSettings reads YAML from r on top of DefaultSettings. Unknown keys
// are an error.
func LoadSettings(r io.Reader) (Settings, error) {
	settings := DefaultSettings()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, errors.Wrap(err, "decoding settings")
	}
	return settings, nil
}

// Apply sets the level and sections of the package loggers.
func (l Log) Apply() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return errors.Wrapf(err, "log level %q", l.Level)
	}
	log.SetLevel(level)
	log.EnableSections(l.Sections...)
	return nil
}
