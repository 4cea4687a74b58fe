package setup

import (
	"fmt"

	"github.com/3Eeeecho/go-resumevault/internal/config"
	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitMySQL 初始化 MySQL 数据库连接并执行迁移
func InitMySQL(cfg *config.MySQLConfig) (*gorm.DB, error) {
	// TranslateError 让唯一约束冲突统一映射为 gorm.ErrDuplicatedKey
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.User{}, &models.ResumeFile{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate database: %w", err)
	}

	logger.Info("MySQL database connected and migrated successfully.")
	return db, nil
}
