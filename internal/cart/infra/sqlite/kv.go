package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Entry maps to the cart_kv_entries table.
type Entry struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

func (Entry) TableName() string {
	return "cart_kv_entries"
}

type KV struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the
// entries table.
func Open(path string) (*KV, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return NewKV(db), nil
}

func NewKV(db *gorm.DB) *KV {
	return &KV{db: db}
}

func (s *KV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *KV) Read(ctx context.Context, key string) ([]byte, error) {
	var entry Entry
	// Find instead of First: a missing key is a normal outcome here
	result := s.db.WithContext(ctx).Where("key = ?", key).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return entry.Value, nil
}

func (s *KV) Write(ctx context.Context, key string, data []byte) error {
	entry := Entry{
		Key:   key,
		Value: data,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry)

	if result.Error != nil {
		return fmt.Errorf("failed to write key %s: %w", key, result.Error)
	}
	return nil
}
