package kvstore

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// LocalStorageEntry maps to the local_storage table.
type LocalStorageEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

func (LocalStorageEntry) TableName() string {
	return "local_storage"
}

var migrations = []*gormigrate.Migration{
	{
		ID: "202410170900_add_local_storage_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&LocalStorageEntry{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&LocalStorageEntry{})
		},
	},
}

type GormStore struct {
	db *gorm.DB
}

// OpenSqlite opens (or creates) a SQLite database at uri and brings its
// schema up to date.
func OpenSqlite(uri string, logQueries bool) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if logQueries {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(uri), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", uri, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations)
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate local_storage: %w", err)
	}
	return nil
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(key string) (string, bool, error) {
	var entry LocalStorageEntry
	// Find instead of First: a missing key is not an error here
	result := s.db.Where("key = ?", key).Limit(1).Find(&entry)
	if result.Error != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *GormStore) Set(key, value string) error {
	entry := LocalStorageEntry{
		Key:   key,
		Value: value,
	}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry)

	if result.Error != nil {
		return fmt.Errorf("failed to write key %s: %w", key, result.Error)
	}
	return nil
}

func (s *GormStore) Delete(key string) error {
	result := s.db.Where("key = ?", key).Delete(&LocalStorageEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, result.Error)
	}
	return nil
}

func (s *GormStore) Dump() (map[string]string, error) {
	var entries []LocalStorageEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	data := make(map[string]string, len(entries))
	for _, e := range entries {
		data[e.Key] = e.Value
	}
	return data, nil
}
