// Package config loads engine settings from defaults, an optional
// quatro.yaml in the working directory, and QUATRO_* environment
// variables, in increasing priority.
package config

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	v *viper.Viper
}

func New() *Config {
	v := viper.New()
	v.SetDefault("debug", false)
	v.SetDefault("tt-bits", 0) // 0 = engine default
	v.SetDefault("book-path", "opening_book.bin")
	v.SetDefault("max-depth", 20)
	v.SetDefault("book-max-moves", 10)
	v.SetDefault("book-search-depth", 12)
	v.SetDefault("use-old-eval", false)

	v.SetEnvPrefix("QUATRO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quatro")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn().Err(err).Msg("config-file-unreadable")
		}
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("config-file-loaded")
	}
	return &Config{v: v}
}

func (c *Config) GetBool(key string) bool     { return c.v.GetBool(key) }
func (c *Config) GetInt(key string) int       { return c.v.GetInt(key) }
func (c *Config) GetString(key string) string { return c.v.GetString(key) }
