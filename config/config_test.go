package config

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigMaxPackedTurns), 10)
	is.Equal(cfg.GetDuration(ConfigLookupTimeout), 5*time.Second)
	is.Equal(cfg.GetString(ConfigDefaultEdition), "English_Scrabble")
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--max-packed-turns", "3", "--debug", "--db-path", "games.db", "list"})
	is.NoErr(err)
	is.Equal(cfg.Args(), []string{"list"})
	is.Equal(cfg.GetInt(ConfigMaxPackedTurns), 3)
	is.True(cfg.GetBool(ConfigDebug))

	cfg.AdjustRelativePaths("/opt/tilegame")
	is.Equal(cfg.GetString(ConfigDBPath), "/opt/tilegame/games.db")
}

func TestLoadRejectsNegativeWindow(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--max-packed-turns", "-1"})
	is.True(err != nil)
}
