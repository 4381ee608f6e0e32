package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/metrics"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

const BackendRedis = "redis"

// RedisWriter stores each record as JSON under pricing:run:<run_id>.
type RedisWriter struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisWriter(rdb *redis.Client, logger *zap.Logger) *RedisWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisWriter{rdb: rdb, logger: logger}
}

// Key returns the redis key for a run.
func Key(runID string) string {
	return "pricing:run:" + runID
}

func (w *RedisWriter) Write(ctx context.Context, rec model.AuditRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		metrics.IncError("audit", "marshal_failed")
		return fmt.Errorf("marshal audit record: %w", err)
	}

	start := time.Now()
	ok, err := w.rdb.SetNX(ctx, Key(rec.RunID), data, 0).Result()
	metrics.ObserveDuration(metrics.AuditWriteDuration, start, BackendRedis)

	if err == nil && !ok {
		err = fmt.Errorf("%w: run_id %s", ErrDuplicateRecord, rec.RunID)
	} else if err != nil {
		err = fmt.Errorf("redis setnx: %w", err)
	}
	metrics.IncAuditWrite(BackendRedis, result(err))

	if err != nil {
		w.logger.Debug("audit.redis.write_failed",
			zap.String("run_id", rec.RunID),
			zap.Error(err))
		return err
	}
	return nil
}

func (w *RedisWriter) HealthCheck(ctx context.Context) error {
	if w.rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := w.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
