// Package db persists settled execution attempts (component C11 of
// SPEC_FULL.md) through GORM, mirroring the teacher's
// internal/db.MySQLRecorder (GORM + MySQL, big.Int fields as varchar(78)
// strings).
package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	arbtypes "arbengine/pkg/types"
)

// ExecutionRecord is the database model for one settled pipeline attempt
// (SPEC_FULL.md §3 expansion).
type ExecutionRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp     time.Time `gorm:"index;not null"`
	Kind          string    `gorm:"type:varchar(16);not null;comment:direct or triangular"`
	Tokens        string    `gorm:"type:varchar(512);not null;comment:comma-joined token addresses"`
	Venues        string    `gorm:"type:varchar(512);not null;comment:comma-joined router addresses"`
	LoanAmount    string    `gorm:"type:varchar(78);not null;comment:big.Int as string"`
	NetProfitUSD  float64   `gorm:"not null"`
	GasCostUSD    float64   `gorm:"not null"`
	Status        string    `gorm:"type:varchar(16);not null"`
	TxHash        string    `gorm:"type:varchar(80)"`
	SkipReason    string    `gorm:"type:varchar(32)"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (ExecutionRecord) TableName() string {
	return "execution_records"
}

// Recorder is the persistence boundary the Scan Loop (C10) writes
// execution outcomes and metrics snapshots through. A no-op
// implementation lets the core run without a database.
type Recorder interface {
	RecordExecution(rec arbtypes.ExecutionRecord) error
	RecordMetricsSnapshot(scanCount uint64, netProfitUSD float64) error
	Close() error
}

// MySQLRecorder implements Recorder using GORM and MySQL.
type MySQLRecorder struct {
	db *gorm.DB
}

// NewMySQLRecorder creates a new MySQLRecorder instance.
// dsn format: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return NewMySQLRecorderWithDB(db)
}

// NewMySQLRecorderWithDB creates a new MySQLRecorder with an existing GORM DB instance.
func NewMySQLRecorderWithDB(db *gorm.DB) (*MySQLRecorder, error) {
	if err := db.AutoMigrate(&ExecutionRecord{}, &MetricsSnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &MySQLRecorder{db: db}, nil
}

// RecordExecution implements Recorder.
func (r *MySQLRecorder) RecordExecution(rec arbtypes.ExecutionRecord) error {
	row := ExecutionRecord{
		Timestamp:    time.UnixMilli(rec.Timestamp),
		Kind:         string(rec.Kind),
		Tokens:       strings.Join(rec.Tokens, ","),
		Venues:       strings.Join(rec.Venues, ","),
		LoanAmount:   rec.LoanAmount,
		NetProfitUSD: rec.NetProfitUSD,
		GasCostUSD:   rec.GasCostUSD,
		Status:       string(rec.Status),
		TxHash:       rec.TxHash,
		SkipReason:   string(rec.SkipReason),
	}

	result := r.db.Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to record execution: %w", result.Error)
	}
	return nil
}

// MetricsSnapshotRecord is the cold-path persistence row the scan loop
// writes every Nth cycle (SPEC_FULL.md §4.10 expansion), separate from the
// hot-path ExecutionRecord writes.
type MetricsSnapshotRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp    time.Time `gorm:"index;not null"`
	ScanCount    uint64    `gorm:"not null"`
	NetProfitUSD float64   `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (MetricsSnapshotRecord) TableName() string {
	return "metrics_snapshots"
}

// RecordMetricsSnapshot implements Recorder.
func (r *MySQLRecorder) RecordMetricsSnapshot(scanCount uint64, netProfitUSD float64) error {
	row := MetricsSnapshotRecord{
		Timestamp:    time.Now(),
		ScanCount:    scanCount,
		NetProfitUSD: netProfitUSD,
	}
	result := r.db.Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to record metrics snapshot: %w", result.Error)
	}
	return nil
}

// GetDB returns the underlying GORM DB instance for advanced queries.
func (r *MySQLRecorder) GetDB() *gorm.DB {
	return r.db
}

// Close closes the database connection.
func (r *MySQLRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Close()
}

// NoopRecorder discards every write; used when DB_DSN is unset so the
// core remains usable without a database (SPEC_FULL.md §6 expansion).
type NoopRecorder struct{}

func (NoopRecorder) RecordExecution(arbtypes.ExecutionRecord) error   { return nil }
func (NoopRecorder) RecordMetricsSnapshot(uint64, float64) error      { return nil }
func (NoopRecorder) Close() error                                    { return nil }
