package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pokerjest/animatch/internal/model"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open 打开 SQLite 数据库并执行自动迁移
func Open(storagePath string) (*gorm.DB, error) {
	if storagePath != ":memory:" {
		// 确保存储目录存在
		dir := filepath.Dir(storagePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	conn, err := gorm.Open(sqlite.Open(storagePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if storagePath == ":memory:" {
		// 每个连接都是独立的内存库, 只保留一个
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// 自动迁移模式
	err = conn.AutoMigrate(&model.Release{}, &model.AnimeTitle{}, &model.AnimeInfo{}, &model.AnimeEpisode{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return conn, nil
}

func InitDB(storagePath string) {
	conn, err := Open(storagePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", storagePath).Msg("failed to initialize database")
	}
	DB = conn
}

func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
