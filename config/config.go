package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigDataPath          = "data-path"
	ConfigDBPath            = "db-path"
	ConfigMaxPackedTurns    = "max-packed-turns"
	ConfigLookupTimeout     = "lookup-timeout"
	ConfigDefaultEdition    = "default-edition"
	ConfigDefaultDictionary = "default-dictionary"
	ConfigConfigFile        = "config-file"
)

// Config wraps a viper instance. Settings come from (in order of
// precedence) command-line flags, TILEGAME_ environment variables, an
// optional config file and the defaults below.
type Config struct {
	*viper.Viper

	args []string
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigDataPath, "./data")
	c.SetDefault(ConfigDBPath, "./data/games.db")
	c.SetDefault(ConfigMaxPackedTurns, 10)
	c.SetDefault(ConfigLookupTimeout, 5*time.Second)
	c.SetDefault(ConfigDefaultEdition, "English_Scrabble")
	c.SetDefault(ConfigDefaultDictionary, "")
}

// Load parses args and the environment into the config.
func (c *Config) Load(args []string) error {
	if c.Viper == nil {
		c.Viper = viper.New()
	}
	c.setDefaults()

	fs := pflag.NewFlagSet("tilegame", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigDataPath, "./data", "directory holding edition overrides and other data files")
	fs.String(ConfigDBPath, "./data/games.db", "path of the SQLite game store")
	fs.Int(ConfigMaxPackedTurns, 10, "number of most recent turns kept in a packed game")
	fs.Duration(ConfigLookupTimeout, 5*time.Second, "timeout for user directory lookups")
	fs.String(ConfigDefaultEdition, "English_Scrabble", "edition used for new games")
	fs.String(ConfigDefaultDictionary, "", "dictionary used for new games")
	fs.String(ConfigConfigFile, "", "optional config file (yaml, toml or json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix("TILEGAME")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if cf := c.GetString(ConfigConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	if c.GetInt(ConfigMaxPackedTurns) < 0 {
		return errors.New("max-packed-turns must not be negative")
	}
	return nil
}

// AdjustRelativePaths makes relative data paths relative to basepath,
// typically the directory of the executable.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigDataPath, ConfigDBPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basepath, p))
	}
}

// Args are the arguments left over after the flags.
func (c *Config) Args() []string {
	return c.args
}

// SanitizedSettings returns all settings suitable for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
