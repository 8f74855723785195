package config

import "github.com/spf13/pflag"

// Option adjusts how Load finds and layers configuration.
type Option func(*loadOptions)

type loadOptions struct {
	path   string
	prefix string
	flags  *pflag.FlagSet
}

// WithConfigFile reads path instead of searching for meterdash.toml.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.path = path }
}

// WithEnvPrefix replaces the METERDASH environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// WithFlags layers a flag set prepared by RegisterFlags on top. Only flags
// that were actually set take effect.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(o *loadOptions) { o.flags = fs }
}

// SnapshotMode selects where chart history comes from.
type SnapshotMode string

const (
	SnapshotsBackend SnapshotMode = "backend"
	SnapshotsLocal   SnapshotMode = "local"
)

func (m SnapshotMode) valid() bool {
	return m == SnapshotsBackend || m == SnapshotsLocal
}
