package db

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	arbtypes "arbengine/pkg/types"
)

func newMockRecorder(t *testing.T) (*MySQLRecorder, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &MySQLRecorder{db: gormDB}, mock
}

func TestMySQLRecorder_RecordExecution(t *testing.T) {
	recorder, mock := newMockRecorder(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `execution_records`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := arbtypes.ExecutionRecord{
		Timestamp:    1_700_000_000_000,
		Kind:         arbtypes.KindDirect,
		Tokens:       []string{"0x01", "0x02"},
		Venues:       []string{"0xaa", "0xbb"},
		LoanAmount:   "10000",
		NetProfitUSD: 12.5,
		GasCostUSD:   1.1,
		Status:       arbtypes.StatusConfirmed,
		TxHash:       "0xdeadbeef",
	}

	require.NoError(t, recorder.RecordExecution(rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLRecorder_RecordMetricsSnapshot(t *testing.T) {
	recorder, mock := newMockRecorder(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `metrics_snapshots`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, recorder.RecordMetricsSnapshot(42, 99.9))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionRecord_TableName(t *testing.T) {
	require.Equal(t, "execution_records", ExecutionRecord{}.TableName())
}

func TestMetricsSnapshotRecord_TableName(t *testing.T) {
	require.Equal(t, "metrics_snapshots", MetricsSnapshotRecord{}.TableName())
}

func TestNoopRecorder_NeverErrors(t *testing.T) {
	var r Recorder = NoopRecorder{}
	require.NoError(t, r.RecordExecution(arbtypes.ExecutionRecord{}))
	require.NoError(t, r.RecordMetricsSnapshot(0, 0))
	require.NoError(t, r.Close())
}
