package queries

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repo holds the writer and reader connections
type Repo struct {
	Conn       *gorm.DB
	ConnReader *gorm.DB
}

// DSN builds the connection string of a database
func DSN(cfg config.DatabaseConfig) string {
	sslmode := cfg.SSLmode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, sslmode)
	if cfg.ApplicationName != "" {
		dsn += " application_name=" + cfg.ApplicationName
	}
	return dsn
}

// Open connects to the writer and, when configured, the reader database
func Open(cfg config.DatabaseClusterConfig) (*Repo, error) {
	writer, err := connect(cfg.Writer)
	if err != nil {
		return nil, err
	}
	reader := writer
	if cfg.Reader.Host != "" {
		if reader, err = connect(cfg.Reader); err != nil {
			return nil, err
		}
	}
	return &Repo{Conn: writer, ConnReader: reader}, nil
}

func connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Error().Err(err).Str("section", "queries").Str("host", cfg.Host).Msg("Unable to connect to database")
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		sqlDB.SetMaxOpenConns(cfg.PoolSize)
		sqlDB.SetMaxIdleConns(cfg.PoolSize)
	}
	return db, nil
}

// Close the database connections
func (repo *Repo) Close() {
	for _, conn := range []*gorm.DB{repo.Conn, repo.ConnReader} {
		if conn == nil {
			continue
		}
		sqlDB, err := conn.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Str("section", "queries").Msg("Unable to close database connection")
		}
		if repo.Conn == repo.ConnReader {
			return
		}
	}
}
