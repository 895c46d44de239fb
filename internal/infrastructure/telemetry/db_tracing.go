package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBSystemSQLite is the db.system value reported for the local store
const DBSystemSQLite = "sqlite"

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled          bool          // Enable database tracing
	LogFullSQL       bool          // Include query variables in spans
	SlowQueryThresh  time.Duration // Threshold for marking queries as slow (default: 200ms)
	DBSystem         string        // Database system name (default: "sqlite")
	WithoutVariables bool          // Exclude query variables from SQL statement
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         DBSystemSQLite,
		WithoutVariables: true,
	}
}

// DBTracingPlugin wraps otelgorm with slow statement detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = DBSystemSQLite
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm registers otelgorm on db together with callbacks that
// flag slow statements and record errors on the statement span.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
		otelgorm.WithAttributes(attribute.String("db.system", p.config.DBSystem)),
	}
	if !p.config.LogFullSQL || p.config.WithoutVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerAround(db, "otel_timing", markQueryStart, p.afterStatement, otelgormSpanEnd); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

// registerFunc registers fn under name. A non-empty ahead names a callback
// that fn must run before.
type registerFunc func(name string, fn func(*gorm.DB), ahead string) error

// statementChain is one of GORM's callback chains with registrars for
// placing callbacks before and after its main step
type statementChain struct {
	op     string
	before registerFunc
	after  registerFunc
}

func statementChains(db *gorm.DB) []statementChain {
	cb := db.Callback()
	return []statementChain{
		{"create",
			func(n string, fn func(*gorm.DB), _ string) error {
				return cb.Create().Before("gorm:create").Register(n, fn)
			},
			func(n string, fn func(*gorm.DB), ahead string) error {
				c := cb.Create().After("gorm:create")
				if ahead != "" {
					c = c.Before(ahead)
				}
				return c.Register(n, fn)
			}},
		{"query",
			func(n string, fn func(*gorm.DB), _ string) error {
				return cb.Query().Before("gorm:query").Register(n, fn)
			},
			func(n string, fn func(*gorm.DB), ahead string) error {
				c := cb.Query().After("gorm:query")
				if ahead != "" {
					c = c.Before(ahead)
				}
				return c.Register(n, fn)
			}},
		{"update",
			func(n string, fn func(*gorm.DB), _ string) error {
				return cb.Update().Before("gorm:update").Register(n, fn)
			},
			func(n string, fn func(*gorm.DB), ahead string) error {
				c := cb.Update().After("gorm:update")
				if ahead != "" {
					c = c.Before(ahead)
				}
				return c.Register(n, fn)
			}},
		{"delete",
			func(n string, fn func(*gorm.DB), _ string) error {
				return cb.Delete().Before("gorm:delete").Register(n, fn)
			},
			func(n string, fn func(*gorm.DB), ahead string) error {
				c := cb.Delete().After("gorm:delete")
				if ahead != "" {
					c = c.Before(ahead)
				}
				return c.Register(n, fn)
			}},
		{"row",
			func(n string, fn func(*gorm.DB), _ string) error { return cb.Row().Before("gorm:row").Register(n, fn) },
			func(n string, fn func(*gorm.DB), ahead string) error {
				c := cb.Row().After("gorm:row")
				if ahead != "" {
					c = c.Before(ahead)
				}
				return c.Register(n, fn)
			}},
		{"raw",
			func(n string, fn func(*gorm.DB), _ string) error { return cb.Raw().Before("gorm:raw").Register(n, fn) },
			func(n string, fn func(*gorm.DB), ahead string) error {
				c := cb.Raw().After("gorm:raw")
				if ahead != "" {
					c = c.Before(ahead)
				}
				return c.Register(n, fn)
			}},
	}
}

// registerAround places before and after around each statement chain,
// naming the callbacks prefix:before_<op> and prefix:after_<op>. Either
// callback may be nil. When aheadOf is set, after runs before the callback
// it names for the chain.
func registerAround(db *gorm.DB, prefix string, before, after func(*gorm.DB), aheadOf func(op string) string) error {
	for _, c := range statementChains(db) {
		if before != nil {
			if err := c.before(prefix+":before_"+c.op, before, ""); err != nil {
				return err
			}
		}
		if after != nil {
			ahead := ""
			if aheadOf != nil {
				ahead = aheadOf(c.op)
			}
			if err := c.after(prefix+":after_"+c.op, after, ahead); err != nil {
				return err
			}
		}
	}
	return nil
}

// otelgormSpanEnd names the otelgorm callback that ends the statement span.
// Annotations have to land before it.
func otelgormSpanEnd(op string) string {
	return "otel:after:" + op
}

// afterStatement annotates the statement span with rows, table, errors and
// a slow query marker
func (p *DBTracingPlugin) afterStatement(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if elapsed, ok := queryElapsed(ctx); ok && elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// markQueryStart stamps the statement context with the current time
func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// WithQueryStartTime returns a context with the query start time set.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}

// queryElapsed reports the time since WithQueryStartTime stamped ctx
func queryElapsed(ctx context.Context) (time.Duration, bool) {
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
