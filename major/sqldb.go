package major

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSqlDB 打开 MySQL 连接并设置连接池
func OpenSqlDB(dsn string, maxOpen, maxIdle int) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("rds.dsn 不能为空")
	}
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("DB init error: %w", err)
	}
	raw, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlDB error: %w", err)
	}
	if maxOpen > 0 {
		raw.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		raw.SetMaxIdleConns(maxIdle)
	}
	return gdb, nil
}
