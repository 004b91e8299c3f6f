package db

import (
	"os"
	"strconv"

	"gorm.io/gorm"
)

// Configured reports whether a database connection was configured at all;
// without one the service falls back to the in-memory store.
func Configured() bool {
	return os.Getenv("DB_HOST") != ""
}

func GetDB() (*gorm.DB, error) {
	dbHost := os.Getenv("DB_HOST")
	port, err := strconv.ParseUint(os.Getenv("DB_PORT"), 10, 32)
	if err != nil {
		port = 5432 // Default PostgreSQL port
	}

	dbName := os.Getenv("DB_NAME")
	credsSecretID := os.Getenv("DB_SECRET_ID")
	return ConnectDatabase(uint(port), dbHost, dbName, credsSecretID)
}
