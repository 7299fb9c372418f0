package storage

import (
	"context"
	"fmt"

	"frost-ledger/internal/config"
	"frost-ledger/internal/logger"
	"frost-ledger/internal/session"
	"frost-ledger/internal/storage/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the operation audit log.
type Store struct {
	db *gorm.DB
}

// InitDB connects to postgres and migrates the schema.
func InitDB(cfg config.DBConfig) (*Store, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Log.Info("[DB] Database connection successfully established.")
	return New(db)
}

// New wraps an open connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.OperationLog{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	logger.Log.Info("[DB] Database schema migrated.")
	return &Store{db: db}, nil
}

// RecordOperation stores the final state of op. Recording the same
// operation twice overwrites the first row.
func (s *Store) RecordOperation(ctx context.Context, op session.OperationState) error {
	row := models.OperationLog{
		OperationID: op.OperationID,
		Device:      op.Device,
		Operation:   op.Operation,
		Instruction: op.Instruction,
		Frames:      op.Frames,
		Parts:       op.Parts,
		Status:      string(op.Status),
		StatusWord:  op.StatusWord,
		Error:       op.Error,
		CreatedAt:   op.CreatedAt,
		FinishedAt:  op.FinishedAt,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// ListOperations returns the newest operations first. An empty device
// matches every device; limit <= 0 means no limit.
func (s *Store) ListOperations(ctx context.Context, device string, limit int) ([]models.OperationLog, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if device != "" {
		q = q.Where("device = ?", device)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.OperationLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
