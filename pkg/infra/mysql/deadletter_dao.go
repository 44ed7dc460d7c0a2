package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DeadLetterRecord 死信归档记录
// Payload 保存 Job 原文，排障时可直接取出重放
type DeadLetterRecord struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	Queue      string         `gorm:"size:128;index"`
	MessageID  string         `gorm:"size:128;uniqueIndex"`
	LastError  string         `gorm:"type:text"`
	Payload    datatypes.JSON `gorm:"type:json"`
	ArchivedAt time.Time      `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (DeadLetterRecord) TableName() string {
	return "dead_letters"
}

// DeadLetterDAO 死信归档数据访问对象
type DeadLetterDAO struct {
	db *gorm.DB
}

// NewDeadLetterDAO 创建 DeadLetterDAO 实例（自动建表）
func NewDeadLetterDAO(dsn string) (*DeadLetterDAO, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&DeadLetterRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate dead_letters: %w", err)
	}

	return &DeadLetterDAO{
		db: db,
	}, nil
}

// Archive 归档一条死信
// MessageID 唯一索引保证重复消费同一条死信不会写两行
func (dao *DeadLetterDAO) Archive(ctx context.Context, queue, messageID, lastError string, payload []byte) error {
	record := DeadLetterRecord{
		Queue:     queue,
		MessageID: messageID,
		LastError: lastError,
		Payload:   datatypes.JSON(payload),
	}

	result := dao.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		FirstOrCreate(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to archive dead letter: %w", result.Error)
	}

	return nil
}

// ListRecent 按归档时间倒序列出最近 limit 条死信
func (dao *DeadLetterDAO) ListRecent(ctx context.Context, limit int) ([]DeadLetterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []DeadLetterRecord
	result := dao.db.WithContext(ctx).
		Order("archived_at DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", result.Error)
	}
	return records, nil
}

// Close 关闭数据库连接
func (dao *DeadLetterDAO) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
