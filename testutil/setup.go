package testutil

import (
	"testing"

	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/config"
	dbadapter "github.com/kasuganosora/questd/db"
	"github.com/kasuganosora/questd/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeSQLiteMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// SeedPlayer inserts a player at the given level with zero exp and currency.
func SeedPlayer(t *testing.T, db *gorm.DB, name string, level int) *model.Player {
	t.Helper()
	p := &model.Player{Name: name, Level: level}
	require.NoError(t, db.Create(p).Error, "SeedPlayer")
	return p
}

// SeedItems inserts catalog items by name.
func SeedItems(t *testing.T, db *gorm.DB, names ...string) []model.Item {
	t.Helper()
	items := make([]model.Item, 0, len(names))
	for _, n := range names {
		it := model.Item{Name: n}
		require.NoError(t, db.Create(&it).Error, "SeedItems")
		items = append(items, it)
	}
	return items
}
