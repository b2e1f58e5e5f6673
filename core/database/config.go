package database

import (
	"fmt"
	"net/url"

	coreconfig "github.com/m3rciful/partybot/core/config"
)

// connectDSN returns the database/sql driver name and DSN for cfg.
func connectDSN(cfg coreconfig.DatabaseConfig) (string, string) {
	if cfg.Driver == coreconfig.DriverSQLite {
		return "sqlite", cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return "postgres", fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// migrateURL returns the golang-migrate database URL for cfg.
func migrateURL(cfg coreconfig.DatabaseConfig) string {
	if cfg.Driver == coreconfig.DriverSQLite {
		return "sqlite://" + cfg.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}
