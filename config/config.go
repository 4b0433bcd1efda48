package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server  Server
	Backend Backend
	Journal Journal
}

type Server struct {
	Port string
}

// Backend is the assessment backend this gateway consumes.
type Backend struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// Journal is the local sqlite write-behind store for analytics fallback.
type Journal struct {
	Path string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 15)
	viper.SetDefault("JOURNAL_PATH", "journal.db")

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Backend.BaseURL = viper.GetString("BACKEND_BASE_URL")
	config.Backend.Token = viper.GetString("BACKEND_TOKEN")
	config.Backend.TimeoutSeconds = viper.GetInt("BACKEND_TIMEOUT_SECONDS")
	config.Journal.Path = viper.GetString("JOURNAL_PATH")

	log.Info().Str("port", config.Server.Port).Str("backend", config.Backend.BaseURL).Msg("Config loaded")
	return &config, nil
}
