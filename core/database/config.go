package database

import coreconfig "dropbot/core/config"

// Config holds database connection settings for the Postgres record store.
type Config struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConnections int
}

// FromStoreConfig maps the application-level Postgres settings onto a Config.
func FromStoreConfig(pg coreconfig.PostgresConfig) Config {
	cfg := Config{
		Host:           pg.Host,
		Port:           pg.Port,
		User:           pg.User,
		Password:       pg.Password,
		Name:           pg.Name,
		SSLMode:        pg.SSLMode,
		MaxConnections: pg.MaxConnections,
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 8
	}
	return cfg
}
