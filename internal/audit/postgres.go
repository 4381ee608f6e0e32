package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/metrics"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

const BackendPostgres = "postgres"

// DBExecutor is the subset of *pgxpool.Pool used by PostgresWriter.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// PoolConfig tunes the pgx pool; zero values keep the pgx defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// OpenPool connects a pgx pool for the audit table.
func OpenPool(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	if pc.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pc.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

// PostgresWriter inserts audit records into audit.pricing_run_log.
type PostgresWriter struct {
	db     DBExecutor
	logger *zap.Logger
}

func NewPostgresWriter(db DBExecutor, logger *zap.Logger) *PostgresWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresWriter{db: db, logger: logger}
}

const insertRunLog = `
	INSERT INTO audit.pricing_run_log (
		run_id,
		product,
		credit_risk,
		term,
		loan_to_value,
		amount,
		loan_id,
		run_date,
		price,
		user_name,
		source_name,
		de_run_id,
		pricing_type
	)
	VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10, $11, $12, $13
	)
	ON CONFLICT (run_id) DO NOTHING;
`

// Write inserts the record. An existing run_id leaves the row untouched and
// returns ErrDuplicateRecord.
func (w *PostgresWriter) Write(ctx context.Context, rec model.AuditRecord) error {
	start := time.Now()
	tag, err := w.db.Exec(ctx, insertRunLog,
		rec.RunID,
		rec.Product,
		rec.CreditRisk,
		rec.Term,
		rec.LoanToValue, // NULL when absent
		rec.Amount,
		rec.LoanID,
		rec.Date,
		rec.Price,
		rec.UserName,
		rec.SourceName,
		rec.DeRunID, // NULL when absent
		rec.PricingType,
	)
	metrics.ObserveDuration(metrics.AuditWriteDuration, start, BackendPostgres)

	if err == nil && tag.RowsAffected() == 0 {
		err = fmt.Errorf("%w: run_id %s", ErrDuplicateRecord, rec.RunID)
	}
	metrics.IncAuditWrite(BackendPostgres, result(err))

	if err != nil {
		w.logger.Debug("audit.postgres.insert_failed",
			zap.String("run_id", rec.RunID),
			zap.String("product", rec.Product),
			zap.Error(err))
		return err
	}

	w.logger.Debug("audit.postgres.insert",
		zap.String("run_id", rec.RunID),
		zap.String("pricing_type", rec.PricingType))
	return nil
}

// HealthCheck pings the database when the executor supports it.
func (w *PostgresWriter) HealthCheck(ctx context.Context) error {
	p, ok := w.db.(pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
