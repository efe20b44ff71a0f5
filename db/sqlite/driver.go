package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by a SQLite file.
// Writers are serialized on one connection so conditional updates never hit SQLITE_BUSY.
func Open(path string) (*gorm.DB, error) {
	return open(path + "?_busy_timeout=5000&_foreign_keys=on")
}

// OpenMemory creates a private in-memory database. The pool is pinned to a
// single connection because every new connection would see an empty database.
func OpenMemory() (*gorm.DB, error) {
	return open(":memory:")
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}
