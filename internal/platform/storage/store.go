// Package storage SQLite持久层：提供商配置、音色映射与请求结果记录。
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"audiopaas-server-go/internal/platform/config"
	"audiopaas-server-go/internal/platform/logging"
)

// Store 持有数据库连接与各仓库
type Store struct {
	db     *gorm.DB
	logger *logging.Logger

	Providers   *ProviderRepository
	Voices      *VoiceRepository
	RequestLogs *RequestLogRepository
}

// Open 打开（必要时创建）数据库，迁移表结构并播种默认音色。
func Open(cfg *config.Config, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Database.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Database.Dir, cfg.Database.File)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return newStore(db, cfg.Security.EncryptionKey, logger)
}

// OpenInMemory 打开内存库，测试用
func OpenInMemory(encryptionKey string, logger *logging.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStore(db, encryptionKey, logger)
}

func newStore(db *gorm.DB, encryptionKey string, logger *logging.Logger) (*Store, error) {
	if err := db.AutoMigrate(&ProviderConfigRecord{}, &VoiceDefinitionRecord{}, &ProviderRequestLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	codec, err := NewCodec(encryptionKey)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:          db,
		logger:      logger,
		Providers:   &ProviderRepository{db: db, codec: codec},
		Voices:      &VoiceRepository{db: db},
		RequestLogs: &RequestLogRepository{db: db},
	}

	if err := s.Voices.SeedDefaults(); err != nil {
		return nil, fmt.Errorf("failed to seed voice definitions: %w", err)
	}

	logger.InfoTag("存储", "数据库就绪")
	return s, nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
