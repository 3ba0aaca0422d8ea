// Package mysql contains the concrete implementation of the persistence layer using GORM and MySQL.
package mysql

import (
	"context"
	"database/sql"
	"log/slog"
	"maps"
	"net"
	"time"

	"planp/config"
	"planp/internal/domain/lifecycle"
	"planp/internal/errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/fx"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

const (
	dbPoolMonitorInterval       = 5 * time.Second
	dbPoolWarnDurationThreshold = 50 * time.Millisecond
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the MySQL connection pool, registers read replicas and hooks
// ping, migrations and pool monitoring into the application lifecycle.
func New(params Params) (*gorm.DB, error) {
	cfg := params.Config.MySQL
	if cfg == nil {
		return nil, errors.New("mysql configuration is missing")
	}

	db, err := open(cfg, newGormSlogLogger(params.Logger, params.Config))
	if err != nil {
		return nil, err
	}

	if len(cfg.Replicas) > 0 {
		if err := useReplicas(db, cfg, params.Config.Env.Debug); err != nil {
			return nil, err
		}
		params.Logger.Info("MySQL read replicas registered", slog.Int("count", len(cfg.Replicas)))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get MySQL sql.DB")
	}
	configurePool(sqlDB, cfg)

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				cancelMonitor()

				return errors.Wrap(err, "failed to ping MySQL")
			}

			if cfg.AutoMigrate {
				if err := RunMigrations(ctx, sqlDB); err != nil {
					cancelMonitor()

					return err
				}
				params.Logger.Info("MySQL schema migrations applied")
			}

			go monitorDBPool(monitorCtx, params.Logger, sqlDB, dbPoolMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancelMonitor()

			return sqlDB.Close()
		},
	})

	return db, nil
}

func open(cfg *config.MySQLConfig, gormLogger logger.Interface) (*gorm.DB, error) {
	dsn, err := buildDSN(cfg, cfg.ConnectionConfig)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(newDialector(dsn), &gorm.Config{
		// Explicit transactions go through TransactionManager.Execute.
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MySQL client")
	}

	return db, nil
}

// newDialector skips the version probe so construction never touches the network;
// connectivity is checked by the start hook.
func newDialector(dsn string) gorm.Dialector {
	return gormmysql.New(gormmysql.Config{
		DSN:                       dsn,
		SkipInitializeWithVersion: true,
	})
}

func useReplicas(db *gorm.DB, cfg *config.MySQLConfig, debug bool) error {
	replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
	for _, replica := range cfg.Replicas {
		if replica.UserName == "" {
			replica.UserName = cfg.UserName
			replica.Password = cfg.Password
		}

		dsn, err := buildDSN(cfg, replica)
		if err != nil {
			return err
		}
		replicas = append(replicas, newDialector(dsn))
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas:          replicas,
		Policy:            dbresolver.RandomPolicy{},
		TraceResolverMode: debug,
	})
	if cfg.MaxIdleConns > 0 {
		resolver = resolver.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		resolver = resolver.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		resolver = resolver.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		resolver = resolver.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.Use(resolver); err != nil {
		return errors.Wrap(err, "failed to register MySQL replicas")
	}

	return nil
}

func configurePool(sqlDB *sql.DB, cfg *config.MySQLConfig) {
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// buildDSN renders a go-sql-driver DSN for one server. parseTime is always on
// so DATETIME columns scan into time.Time.
func buildDSN(cfg *config.MySQLConfig, conn config.ConnectionConfig) (string, error) {
	dsn := mysqldriver.NewConfig()
	dsn.User = conn.UserName
	dsn.Passwd = conn.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(conn.Host, conn.Port)
	dsn.DBName = cfg.Database
	dsn.ParseTime = true

	params := maps.Clone(cfg.Params)
	if loc, ok := params["loc"]; ok {
		location, err := time.LoadLocation(loc)
		if err != nil {
			return "", errors.Wrapf(err, "invalid mysql loc %q", loc)
		}
		dsn.Loc = location
		delete(params, "loc")
	}
	if len(params) > 0 {
		dsn.Params = params
	}

	return dsn.FormatDSN(), nil
}

func monitorDBPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := sqlDB.Stats()
			waitDelta := cur.WaitCount - prev.WaitCount
			waitDurationDelta := cur.WaitDuration - prev.WaitDuration

			if waitDelta > 0 {
				attrs := []slog.Attr{
					slog.Int64("waitCountDelta", waitDelta),
					slog.Duration("waitDurationDelta", waitDurationDelta),
					slog.Duration("avgWait", waitDurationDelta/time.Duration(waitDelta)),
					slog.Int("maxOpenConns", cur.MaxOpenConnections),
					slog.Int("openConns", cur.OpenConnections),
					slog.Int("inUseConns", cur.InUse),
					slog.Int("idleConns", cur.Idle),
				}
				if waitDurationDelta >= dbPoolWarnDurationThreshold {
					logger.LogAttrs(ctx, slog.LevelWarn, "MySQL pool wait detected", attrs...)
				} else {
					logger.LogAttrs(ctx, slog.LevelDebug, "MySQL pool wait observed", attrs...)
				}
			}

			prev = cur
		}
	}
}
