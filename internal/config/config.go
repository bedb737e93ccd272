// Package config loads settings from flags, environment variables and an optional
// configuration file.
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Option names.
const (
	KeyConfig      = "config"
	KeyExtrapolate = "extrapolate"
	KeyLogLevel    = "log_level"
	KeyVerbose     = "verbose"
	KeyPort        = "port"
	KeyDataDir     = "data_dir"
	KeyCORSOrigins = "cors_allowed_origins"
	KeyLevelsFile  = "levels_file"
)

// option is one configuration setting. Every option can be set from its environment
// variable; those with a flag name are also command-line flags.
type option struct {
	name, env, flag, usage, shorthand string
	defaultVal                        interface{}
}

var options = []option{
	{
		name: KeyConfig, env: "VERTINT_CONFIG", flag: "config",
		usage:      "configuration file (TOML, YAML or JSON)",
		defaultVal: "",
	},
	{
		name: KeyExtrapolate, env: "EXTRAPOLATE",
		usage: "extrapolate below the surface and above the model top " +
			"for operators without the x suffix (1 enables)",
		defaultVal: "",
	},
	{
		name: KeyLogLevel, env: "LOG_LEVEL", flag: "log-level",
		usage:      "log level (debug, info, warn, error)",
		defaultVal: "info",
	},
	{
		name: KeyVerbose, env: "VERBOSE", flag: "verbose", shorthand: "v",
		usage:      "print diagnostics about the vertical coordinate and field roles",
		defaultVal: false,
	},
	{
		name: KeyPort, env: "PORT", flag: "port",
		usage:      "HTTP server port",
		defaultVal: "8080",
	},
	{
		name: KeyDataDir, env: "DATA_DIR", flag: "data-dir",
		usage:      "directory holding datasets and level lists",
		defaultVal: "./data",
	},
	{
		name: KeyCORSOrigins, env: "CORS_ALLOWED_ORIGINS",
		usage:      "comma-separated list of allowed origins (default: all origins)",
		defaultVal: "",
	},
	{
		name: KeyLevelsFile, env: "LEVELS_FILE", flag: "levels-file",
		usage:      "CSV file with a level column, used instead of the levels argument",
		defaultVal: "",
	},
}

// Config holds the resolved settings.
type Config struct {
	Extrapolate string // Raw EXTRAPOLATE toggle.
	LogLevel    logrus.Level
	Verbose     bool
	Port        string
	DataDir     string
	CORSOrigins []string
	LevelsFile  string
}

// New returns a viper instance with defaults and environment bindings for every option.
func New() *viper.Viper {
	v := viper.New()
	for _, o := range options {
		v.SetDefault(o.name, o.defaultVal)
		_ = v.BindEnv(o.name, o.env)
	}
	return v
}

// BindFlags adds the flags named in flags to fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, flags ...string) error {
	for _, name := range flags {
		o, ok := lookup(name)
		if !ok || o.flag == "" {
			return fmt.Errorf("unknown flag option %q", name)
		}
		switch d := o.defaultVal.(type) {
		case string:
			fs.StringP(o.flag, o.shorthand, d, o.usage)
		case bool:
			fs.BoolP(o.flag, o.shorthand, d, o.usage)
		default:
			return fmt.Errorf("option %s: unsupported default type %T", o.name, d)
		}
		if err := v.BindPFlag(o.name, fs.Lookup(o.flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.flag, err)
		}
	}
	return nil
}

func lookup(name string) (option, bool) {
	for _, o := range options {
		if o.name == name {
			return o, true
		}
	}
	return option{}, false
}

// Load reads the configuration file, if one is set, and resolves the settings.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	level, err := logrus.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := Config{
		Extrapolate: v.GetString(KeyExtrapolate),
		LogLevel:    level,
		Verbose:     v.GetBool(KeyVerbose),
		Port:        v.GetString(KeyPort),
		DataDir:     v.GetString(KeyDataDir),
		LevelsFile:  v.GetString(KeyLevelsFile),
	}
	for _, origin := range strings.Split(v.GetString(KeyCORSOrigins), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	if cfg.Verbose && cfg.LogLevel < logrus.DebugLevel {
		cfg.LogLevel = logrus.DebugLevel
	}
	return cfg, nil
}

// NewLogger returns a logger writing at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// Usage returns a description of the environment variables.
func Usage() string {
	var b strings.Builder
	for _, o := range options {
		fmt.Fprintf(&b, "  %-22s %s\n", o.env, o.usage)
	}
	return b.String()
}
