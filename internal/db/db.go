package db

import (
	"fmt"
	"time"

	"redvibe/internal/config"
	"redvibe/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 打开数据库并迁移，失败直接退出进程
func Init(cfg config.DatabaseConfig, log *zap.Logger) {
	var err error
	DB, err = Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.String("driver", cfg.Driver), zap.Error(err))
	}
	log.Info("database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(DB); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("database migration completed")
}

func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	return gdb, nil
}

// Migrate 建表；点赞关系使用自定义连接表 post_likes
func Migrate(gdb *gorm.DB) error {
	if err := gdb.SetupJoinTable(&models.Post{}, "Likes", &models.PostLike{}); err != nil {
		return fmt.Errorf("setup post_likes join table: %w", err)
	}

	return gdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.Report{},
	)
}
