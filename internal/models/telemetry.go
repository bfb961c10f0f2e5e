// Package models defines GORM data models for PhiGate.
package models

import (
	"time"

	"gorm.io/gorm"
)

// TelemetryRecord stores one persisted host telemetry snapshot. The server
// keeps a row per /telemetry/snapshot call so the Web UI can draw history
// sparklines. Nil fields mean the metric source was unavailable at sample
// time, matching the nullable JSON surface.
type TelemetryRecord struct {
	gorm.Model

	MemoryPercent  *float64 `json:"memory_percent"`
	MemoryUsedGB   *float64 `json:"memory_used_gb"`
	MemoryTotalGB  *float64 `json:"memory_total_gb"`
	GPUPercent     *float64 `json:"gpu_percent"`
	CPUPercent     *float64 `json:"cpu_percent"`
	CPUClockMHz    *float64 `json:"cpu_clock_mhz"`
	CPUClockMaxMHz *float64 `json:"cpu_clock_max_mhz"`
	GPUClockMHz    *float64 `json:"gpu_clock_mhz"`
	GPUClockMaxMHz *float64 `json:"gpu_clock_max_mhz"`

	SampledAt time.Time `gorm:"index" json:"sampled_at"`
}
