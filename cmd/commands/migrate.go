package commands

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	cfg "gitlab.com/unchained-card/card_api/config"

	"github.com/golang-migrate/migrate/v4"

	// import support for file mime type
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationsPath is where the sql files of the users table live
var MigrationsPath = "file://./db/migrations"

// DatabaseURL builds the migrate connection url of the writer database
func DatabaseURL(config cfg.Config) string {
	dbConf := config.DatabaseCluster.Writer
	sslmode := dbConf.SSLmode
	if sslmode == "" {
		sslmode = "disable"
	}
	uri := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbConf.Username, dbConf.Password),
		Host:     fmt.Sprintf("%s:%d", dbConf.Host, dbConf.Port),
		Path:     "/" + dbConf.Name,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	return uri.String()
}

// Migrate the current database schema to the new version
func Migrate(config cfg.Config) {
	m, err := migrate.New(MigrationsPath, DatabaseURL(config))
	if err != nil {
		log.Fatal().Err(err).Str("section", "migrate").Msg("Unable to connect to database [WRITER]")
		return
	}
	defer m.Close()

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		if errMapped, ok := err.(migrate.ErrDirty); ok {
			log.Fatal().Err(err).Str("section", "migrate").Int("version", errMapped.Version).Msg("Unable to execute migration")
		} else {
			log.Fatal().Err(err).Str("section", "migrate").Msg("Unable to execute unknown migration")
		}
		return
	}
	log.Info().Str("section", "migrate").Msg("Migrations executed successfully")
}
