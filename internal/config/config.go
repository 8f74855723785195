package config

import (
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "METERDASH"
	DefaultLogLevel  = "warning"
	DefaultBackend   = "http://127.0.0.1:5000"
	DefaultDevice    = "UM34C"
	DefaultSession   = "My measurement"
	DefaultRate      = 1.0
	DefaultLogLines  = 250
)

type Config struct {
	Backend      string  `mapstructure:"backend"`
	Device       string  `mapstructure:"device"`
	Address      string  `mapstructure:"address"`
	Rate         float64 `mapstructure:"rate"`
	Session      string  `mapstructure:"session"`
	LeftAxis     string  `mapstructure:"left_axis"`
	RightAxis    string  `mapstructure:"right_axis"`
	ColorMode    string  `mapstructure:"color_mode"`
	Snapshots    string  `mapstructure:"snapshots"`
	LogLines     int     `mapstructure:"log_lines"`
	Record       bool    `mapstructure:"record"`
	RecordDB     string  `mapstructure:"record_db"`
	BatchSize    int     `mapstructure:"batch_size"`
	BatchTimeout int     `mapstructure:"batch_timeout"`
	LogLevel     string  `mapstructure:"log_level"`
	Debug        bool    `mapstructure:"debug"`
	Verbose      bool    `mapstructure:"verbose"`
}

// setting ties a configuration key to its flag. The flag name is the key
// with dashes.
type setting struct {
	key   string
	value any
	usage string
}

func (s setting) flag() string {
	return strings.ReplaceAll(s.key, "_", "-")
}

var settings = []setting{
	{"backend", DefaultBackend, "Meter backend base URL"},
	{"device", DefaultDevice, "Meter model (UM24C, UM25C, UM34C, TC66C, ...)"},
	{"address", "", "Serial port or Bluetooth address of the meter"},
	{"rate", DefaultRate, "Sample interval hint in seconds"},
	{"session", DefaultSession, "Session name to record into"},
	{"left_axis", "voltage", "Metric plotted on the left axis"},
	{"right_axis", "current", "Metric plotted on the right axis"},
	{"color_mode", "light", "Chart palette (light, dark, contrast)"},
	{"snapshots", string(SnapshotsBackend), "Historical snapshot source (backend, local)"},
	{"log_lines", DefaultLogLines, "Number of log lines kept in the log pane"},
	{"record", false, "Record received samples into the local database"},
	{"record_db", defaultRecordDB(), "Path of the local recording database"},
	{"batch_size", 50, "Samples per recorder write batch"},
	{"batch_timeout", 5, "Seconds between recorder flushes"},
	{"log_level", DefaultLogLevel, "Log level (debug, info, warning, error)"},
	{"debug", false, "Enable debugging mode"},
	{"verbose", false, "Enable verbose logging"},
}

// RegisterFlags defines a flag for every configuration key on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, s := range settings {
		switch def := s.value.(type) {
		case string:
			fs.String(s.flag(), def, s.usage)
		case float64:
			fs.Float64(s.flag(), def, s.usage)
		case int:
			fs.Int(s.flag(), def, s.usage)
		case bool:
			fs.Bool(s.flag(), def, s.usage)
		}
	}
}

// Load layers defaults, the config file, METERDASH_* environment variables
// and flags, in increasing priority, and validates the result.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := loadOptions{prefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.value)
	}

	if err := readFile(v, o); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	v.SetEnvPrefix(o.prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if o.flags != nil {
		for _, s := range settings {
			f := o.flags.Lookup(s.flag())
			if f == nil {
				continue
			}
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readFile loads an explicit file (option, then <PREFIX>_CONFIG) or
// searches the working and user config directories. A missing searched
// file is not an error.
func readFile(v *viper.Viper, o loadOptions) error {
	path := o.path
	if path == "" {
		path = os.Getenv(o.prefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}

	v.SetConfigName("meterdash")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "meterdash"))
	}

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}

	return nil
}

// Validate rejects values that would otherwise fail later in a confusing
// place. A non-positive log_lines falls back to the default.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Rate <= 0 {
		return errFactory.WithData(errors.ErrInvalidRate, c.Rate)
	}
	if c.Backend == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "backend URL is required")
	}
	if !SnapshotMode(c.Snapshots).valid() {
		return errFactory.WithData(errors.ErrInvalidConfig, "snapshots="+c.Snapshots)
	}
	if c.LogLines <= 0 {
		c.LogLines = DefaultLogLines
	}

	return nil
}

// EffectiveLogLevel folds the debug and verbose switches into the level name.
func (c *Config) EffectiveLogLevel() string {
	switch {
	case c.Debug:
		return "debug"
	case c.Verbose:
		return "info"
	default:
		return c.LogLevel
	}
}

func defaultRecordDB() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "meterdash.db"
	}

	return filepath.Join(dir, "meterdash", "data.db")
}
