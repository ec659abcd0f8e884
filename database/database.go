package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"civic-complaint-service/config"
	"civic-complaint-service/models"
)

// Database wraps the MySQL connection backing the complaint repository.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the MySQL connection and waits for it to come up.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry.
	var waitInterval time.Duration = 1 * time.Second
	for i := 0; i < cfg.DBConnectRetries; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.WithError(err).Warnf("Database connection failed, retrying in %v", waitInterval)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("database did not come up: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// GetDB exposes the underlying connection.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// requireOneRow validates a conditional write: an error is passed through,
// zero affected rows becomes a write conflict.
func requireOneRow(r sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.WithError(err).Error("failed to get status of db op")
		return err
	}
	if rows == 0 {
		return models.ErrWriteConflict
	}
	if rows != 1 {
		log.Warnf("Expected to affect 1 row, affected %d", rows)
	}
	return nil
}
