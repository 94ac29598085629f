// Package config loads the optional `arx.toml` configuration file.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/fenix-project/arx/report"
	"github.com/pelletier/go-toml"
)

// Config is the resolved compiler configuration.
type Config struct {
	// Producer is recorded in the debug compile unit.
	Producer string

	// SourceFile and SourceDir name the file recorded in the debug compile
	// unit.
	SourceFile, SourceDir string

	// Triple is the target triple.  Empty means the host.
	Triple string

	// RejectDuplicateParams makes duplicate parameter names a compile error
	// instead of letting the later parameter shadow the earlier one.
	RejectDuplicateParams bool

	// OutputPath is where the module is written.  Empty means stderr.
	OutputPath string

	// LogLevel is one of the enumerated log levels of the report package.
	LogLevel int
}

// tomlConfigFile represents the configuration file as it is encoded in TOML.
type tomlConfigFile struct {
	Compiler *tomlCompiler `toml:"compiler"`
	Output   *tomlOutput   `toml:"output"`
}

// tomlCompiler represents the `[compiler]` table.  Pointer fields distinguish
// keys that are absent from keys set to their zero value.
type tomlCompiler struct {
	Producer              *string `toml:"producer"`
	SourceFile            *string `toml:"source-file"`
	SourceDir             *string `toml:"source-dir"`
	Triple                *string `toml:"triple"`
	RejectDuplicateParams *bool   `toml:"reject-duplicate-params"`
}

// tomlOutput represents the `[output]` table.
type tomlOutput struct {
	Path     *string `toml:"path"`
	LogLevel *string `toml:"loglevel"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Producer:              "Arx Compiler",
		SourceFile:            "fib.arxks",
		SourceDir:             ".",
		RejectDuplicateParams: true,
		LogLevel:              report.LogLevelVerbose,
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(buff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes a configuration from TOML text.  Keys that are absent keep
// their default value.
func Parse(buff []byte) (*Config, error) {
	tcf := &tomlConfigFile{}
	if err := toml.Unmarshal(buff, tcf); err != nil {
		return nil, err
	}

	cfg := Default()

	if tc := tcf.Compiler; tc != nil {
		setString(&cfg.Producer, tc.Producer)
		setString(&cfg.SourceFile, tc.SourceFile)
		setString(&cfg.SourceDir, tc.SourceDir)
		setString(&cfg.Triple, tc.Triple)

		if tc.RejectDuplicateParams != nil {
			cfg.RejectDuplicateParams = *tc.RejectDuplicateParams
		}
	}

	if to := tcf.Output; to != nil {
		setString(&cfg.OutputPath, to.Path)

		if to.LogLevel != nil {
			logLevel, ok := report.ParseLogLevel(*to.LogLevel)
			if !ok {
				return nil, fmt.Errorf("unknown log level: `%s`", *to.LogLevel)
			}

			cfg.LogLevel = logLevel
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.Producer == "" {
		return errors.New("producer must not be empty")
	}

	if cfg.SourceFile == "" {
		return errors.New("source file must not be empty")
	}

	if cfg.LogLevel < report.LogLevelSilent || cfg.LogLevel > report.LogLevelVerbose {
		return fmt.Errorf("invalid log level: %d", cfg.LogLevel)
	}

	return nil
}

func setString(dest *string, src *string) {
	if src != nil {
		*dest = *src
	}
}
