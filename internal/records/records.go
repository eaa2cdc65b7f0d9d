// Package records keeps a durable audit trail of detected buyer leads
// and payment screenshots, backed by SQLite or MySQL.
package records

import (
	"context"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Lead is a participant who confirmed purchase intent.
type Lead struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ParticipantID string `gorm:"size:64;index"`
	Username      string `gorm:"size:64"`
	Trigger       string `gorm:"size:255"`
	CreatedAt     time.Time
}

// Payment is a detected payment screenshot.
type Payment struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ParticipantID string `gorm:"size:64;index"`
	Username      string `gorm:"size:64"`
	ImageURL      string `gorm:"type:text"`
	Amount        string `gorm:"size:64"`
	Reference     string `gorm:"size:128"`
	CreatedAt     time.Time
}

// Store persists leads and payments. It implements the relay's
// Recorder capability.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured backend and migrates the schema.
// backend is "sqlite" (dsn is a file path) or "mysql" (dsn is a
// standard MySQL DSN).
func Open(backend, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch backend {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		if _, err := mysqldrv.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("records: invalid mysql dsn: %w", err)
		}
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("records: unsupported backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("records: open %s: %w", backend, err)
	}
	if err := db.AutoMigrate(&Lead{}, &Payment{}); err != nil {
		return nil, fmt.Errorf("records: auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordLead stores a confirmed buyer lead.
func (s *Store) RecordLead(ctx context.Context, participantID, username, trigger string) error {
	lead := Lead{
		ParticipantID: participantID,
		Username:      username,
		Trigger:       trigger,
	}
	if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return fmt.Errorf("records: record lead for %s: %w", participantID, err)
	}
	return nil
}

// RecordPayment stores a detected payment screenshot.
func (s *Store) RecordPayment(ctx context.Context, participantID, username, imageURL, amount, reference string) error {
	p := Payment{
		ParticipantID: participantID,
		Username:      username,
		ImageURL:      imageURL,
		Amount:        amount,
		Reference:     reference,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return fmt.Errorf("records: record payment for %s: %w", participantID, err)
	}
	return nil
}

// RecentLeads returns the newest leads, most recent first.
func (s *Store) RecentLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 20
	}
	var leads []Lead
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("records: list leads: %w", err)
	}
	return leads, nil
}

// RecentPayments returns the newest payments, most recent first.
func (s *Store) RecentPayments(ctx context.Context, limit int) ([]Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	var payments []Payment
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("records: list payments: %w", err)
	}
	return payments, nil
}
