package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledServiceIsNoop(t *testing.T) {
	c, err := NewService(Config{Enabled: false}, logger.Default())
	require.NoError(t, err)

	assert.IsType(t, &noopCollector{}, c)
	assert.NoError(t, c.Record(context.Background(), &PollRecord{}))
	assert.NoError(t, c.Close())
}

func TestEnabledWithoutPath(t *testing.T) {
	_, err := NewService(Config{Enabled: true}, logger.Default())
	require.Error(t, err)
	assert.Equal(t, ErrInvalidConfig, errors.CodeOf(err))
}

func TestRecordPolls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "telemetry.db")
	c, err := NewService(Config{Enabled: true, DBPath: path}, logger.Default())
	require.NoError(t, err)

	ts := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	require.NoError(t, c.Record(context.Background(), &PollRecord{
		Timestamp:          ts,
		Location:           "living-room",
		ReadOK:             true,
		TemperatureCelsius: 23.5,
		HumidityPercent:    60,
		WriteOK:            true,
	}))
	require.NoError(t, c.Record(context.Background(), &PollRecord{
		Timestamp: ts.Add(2 * time.Second),
		Location:  "living-room",
		FaultCode: string(errors.ErrTransientFault),
	}))
	require.NoError(t, c.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT timestamp, read_ok, fault_code, temperature_celsius, humidity_percent, write_ok FROM polls ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		ts          int64
		readOK      int
		fault       sql.NullString
		temperature sql.NullFloat64
		humidity    sql.NullFloat64
		writeOK     int
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.ts, &r.readOK, &r.fault, &r.temperature, &r.humidity, &r.writeOK))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)

	assert.Equal(t, ts.UnixNano(), got[0].ts)
	assert.Equal(t, 1, got[0].readOK)
	assert.False(t, got[0].fault.Valid)
	assert.Equal(t, 23.5, got[0].temperature.Float64)
	assert.Equal(t, 60.0, got[0].humidity.Float64)
	assert.Equal(t, 1, got[0].writeOK)

	assert.Equal(t, 0, got[1].readOK)
	assert.Equal(t, "sensor_transient_fault", got[1].fault.String)
	assert.False(t, got[1].temperature.Valid)
	assert.Equal(t, 0, got[1].writeOK)
}

func TestRecordNil(t *testing.T) {
	c, err := NewService(Config{Enabled: true, DBPath: filepath.Join(t.TempDir(), "t.db")}, logger.Default())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, ErrInvalidRecord, errors.CodeOf(c.Record(context.Background(), nil)))
}

func TestRecordCancelledContext(t *testing.T) {
	c, err := NewService(Config{Enabled: true, DBPath: filepath.Join(t.TempDir(), "t.db")}, logger.Default())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, ErrOperationTimeout, errors.CodeOf(c.Record(ctx, &PollRecord{})))
}

func TestSchemaMismatchIsBackedUpAndRecreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (99, datetime('now'));
		CREATE TABLE polls (id INTEGER PRIMARY KEY, legacy TEXT);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewRepository(Config{Enabled: true, DBPath: path}, logger.Default())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	backups, err := os.ReadDir(filepath.Join(dir, backupDirName))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Contains(t, backups[0].Name(), "telemetry_v99_")

	db, err = sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	exists, err := TableExists(db, "polls")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	cfg := Config{Enabled: true, DBPath: path}

	repo, err := NewRepository(cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, repo.Store(context.Background(), &PollRecord{Timestamp: time.Now(), Location: "x"}))
	require.NoError(t, repo.Close())

	repo, err = NewRepository(cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM polls`).Scan(&n))
	assert.Equal(t, 1, n)
}
