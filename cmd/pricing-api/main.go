package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/api"
	"github.com/Checker-Finance/loan-pricer/internal/audit"
	"github.com/Checker-Finance/loan-pricer/internal/pricer"
	"github.com/Checker-Finance/loan-pricer/internal/pricing"
	"github.com/Checker-Finance/loan-pricer/internal/productspec"
	"github.com/Checker-Finance/loan-pricer/internal/publisher"
	"github.com/Checker-Finance/loan-pricer/internal/rate"
	"github.com/Checker-Finance/loan-pricer/internal/tables"
	"github.com/Checker-Finance/loan-pricer/pkg/awsconfig"
	"github.com/Checker-Finance/loan-pricer/pkg/config"
	"github.com/Checker-Finance/loan-pricer/pkg/logger"
	"github.com/Checker-Finance/loan-pricer/pkg/secrets"
	"github.com/Checker-Finance/loan-pricer/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	log := logger.L()
	logg.Infow("starting [pricing-api]...",
		"env", cfg.Env,
		"table_source", cfg.TableSource,
		"audit_backend", cfg.AuditBackend)

	// --- AWS ---
	awsCfg, err := awsconfig.Load(ctx, cfg.AWSRegion)
	if err != nil {
		logg.Fatalw("failed to load aws config", "error", err)
	}

	// --- Reference tables ---
	var tableProvider tables.Provider
	switch cfg.TableSource {
	case config.TablesDir:
		tableProvider = tables.NewDirProvider(cfg.TableDir, cfg.TableExt, log)
	default:
		if cfg.TableBucket == "" {
			logg.Fatal("TABLE_BUCKET (or RB_AWS_S3_BUCKET) must be set for s3 tables")
		}
		tableProvider = tables.NewS3Provider(s3.NewFromConfig(awsCfg), cfg.TableBucket, cfg.TablePrefix, cfg.TableExt, log)
	}

	// --- Audit log ---
	auditLog, closeAudit, err := newAuditLogger(ctx, cfg, awsCfg, log)
	if err != nil {
		logg.Fatalw("failed to init audit logger", "backend", cfg.AuditBackend, "error", err)
	}
	defer closeAudit()

	// --- Pricing service ---
	svc := pricer.NewService(
		productspec.NewResolver(tableProvider, log),
		pricing.NewEngine(tableProvider, log),
		auditLog,
		log,
	)

	// --- Publisher (optional) ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err := publisher.New(nc, cfg.PricedSubject, cfg.ServiceName, log)
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		defer pub.Close()
		svc.SetPublisher(pub)
		logg.Infow("publishing pricing events", "nats", cfg.NATSURL, "subject", cfg.PricedSubject)
	}

	// --- Rate limiter ---
	var rateMgr *rate.Manager
	if cfg.RateLimitEnabled {
		rateMgr = rate.NewManager(rate.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		})
		go rateMgr.Start(ctx, time.Minute, 10*time.Minute)
	}

	// --- HTTP ---
	app := api.NewApp(cfg)
	api.RegisterRoutes(app,
		&api.Handler{Logger: log, Service: svc},
		&api.HealthHandler{Logger: log, Tables: tableProvider, Audit: auditLog},
		rateMgr,
	)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logg.Info("shutting down [pricing-api]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.ShutdownWithContext(shutdownCtx) //nolint:errcheck
}

// newAuditLogger builds the configured audit backend and a func releasing its connections.
func newAuditLogger(ctx context.Context, cfg *config.Config, awsCfg aws.Config, log *zap.Logger) (audit.Logger, func(), error) {
	switch cfg.AuditBackend {
	case config.AuditDynamoDB:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.Region = cfg.AuditDynamoRegion
		})
		return audit.NewDynamoWriter(client, cfg.AuditTable, log), func() {}, nil

	case config.AuditPostgres:
		dsn := cfg.DatabaseURL
		if cfg.DatabaseSecret != "" {
			v, err := secrets.Lookup(ctx, secrets.NewAWSProvider(awsCfg), cfg.DatabaseSecret, "dsn")
			if err != nil {
				return nil, nil, fmt.Errorf("resolve audit dsn: %w", err)
			}
			dsn = v
		}
		log.Info("audit.postgres.connecting", zap.String("dsn", utils.MaskDSN(dsn)))

		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		pool, err := audit.OpenPool(connectCtx, dsn, audit.PoolConfig{
			MaxConns:        int32(cfg.PGMaxConns),
			MinConns:        int32(cfg.PGMinConns),
			MaxConnLifetime: cfg.PGMaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return audit.NewPostgresWriter(pool, log), pool.Close, nil

	case config.AuditRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPass,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return audit.NewRedisWriter(rdb, log), func() { _ = rdb.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown audit backend %q", cfg.AuditBackend)
	}
}
