// Package server manages the PhiGate database layer. It initializes GORM
// with SQLite and persists telemetry snapshots for the history endpoint.
package server

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/taavik/phigate/internal/config"
	"github.com/taavik/phigate/internal/models"
	"github.com/taavik/phigate/internal/telemetry"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the database and runs AutoMigrate.
func InitDB(cfg *config.Config) error {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&models.TelemetryRecord{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	DB = db
	return nil
}

// SaveTelemetry persists one snapshot. A nil DB (history disabled, e.g. in
// tests) is a no-op: the live snapshot surface never depends on storage.
func SaveTelemetry(s telemetry.Sample) error {
	if DB == nil {
		return nil
	}
	rec := models.TelemetryRecord{
		MemoryPercent:  s.MemoryPercent,
		MemoryUsedGB:   s.MemoryUsedGB,
		MemoryTotalGB:  s.MemoryTotalGB,
		GPUPercent:     s.GPUPercent,
		CPUPercent:     s.CPUPercent,
		CPUClockMHz:    s.CPUClockMHz,
		CPUClockMaxMHz: s.CPUClockMaxMHz,
		GPUClockMHz:    s.GPUClockMHz,
		GPUClockMaxMHz: s.GPUClockMaxMHz,
		SampledAt:      time.Unix(s.Timestamp, 0),
	}
	return DB.Create(&rec).Error
}

// RecentTelemetry returns the newest records, most recent first.
func RecentTelemetry(limit int) ([]models.TelemetryRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var records []models.TelemetryRecord
	err := DB.Order("sampled_at desc").Limit(limit).Find(&records).Error
	return records, err
}
