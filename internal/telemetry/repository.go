package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	log.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db:     db,
		logger: log,
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, record *PollRecord) error {
	var fault sql.NullString
	if record.FaultCode != "" {
		fault = sql.NullString{String: record.FaultCode, Valid: true}
	}

	var temperature, humidity sql.NullFloat64
	if record.ReadOK {
		temperature = sql.NullFloat64{Float64: record.TemperatureCelsius, Valid: true}
		humidity = sql.NullFloat64{Float64: record.HumidityPercent, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertPollSQL,
		record.Timestamp.UnixNano(),
		record.Location,
		boolToInt(record.ReadOK),
		fault,
		temperature,
		humidity,
		boolToInt(record.WriteOK),
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint telemetry WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	r.logger.Debug().Msg("Telemetry repository closed")

	return nil
}
