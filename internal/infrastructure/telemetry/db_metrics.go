package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig controls SQLite statement and pool metrics
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	// The SQLite pool is a single writer connection, so in_use and the
	// utilization gauge show contention between bill saves and imports.
	PoolStatsInterval time.Duration
}

func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics records statement counts and latency plus pool occupancy
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	poolUtilization    *FloatGauge

	queryTotal      *Counter
	queryErrorTotal *Counter
	queryDuration   *Histogram
	slowQueryTotal  *Counter

	config DBMetricsConfig
	logger *zap.Logger

	mu    sync.RWMutex
	sqlDB *sql.DB

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the instruments on meter. Zero durations in cfg take
// the defaults.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultDBMetricsConfig()
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = defaults.SlowQueryThreshold
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = defaults.PoolStatsInterval
	}

	b := NewInstrumentSet(meter)
	m := &DBMetrics{
		poolConnections:    b.Gauge("db_pool_connections", "Connections in the pool by state", "{connection}"),
		poolConnectionsMax: b.Gauge("db_pool_connections_max", "Maximum open connections", "{connection}"),
		poolUtilization:    b.FloatGauge("db_pool_utilization", "Share of the connection limit in use", "1"),
		queryTotal:         b.Counter("db_query_total", "Statements executed by operation", "{query}"),
		queryErrorTotal:    b.Counter("db_query_errors_total", "Failed statements by operation", "{query}"),
		queryDuration: b.Histogram(HistogramOpts{
			Name:        "db_query_duration_seconds",
			Description: "Statement latency",
			Unit:        "s",
			Boundaries:  DBDurationBuckets,
		}),
		slowQueryTotal: b.Counter("db_slow_query_total", "Statements slower than the threshold by table", "{query}"),
		config:         cfg,
		logger:         logger,
		stopCh:         make(chan struct{}),
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the pool StartPoolStatsCollection reads
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	m.sqlDB = sqlDB
	m.mu.Unlock()
}

func (m *DBMetrics) pool() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sqlDB
}

// StartPoolStatsCollection samples the pool now and then every
// PoolStatsInterval until Stop or ctx ends. It does nothing before SetSQLDB.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.pool() == nil {
		m.logger.Warn("Pool stats collection not started: no sql.DB")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		for {
			m.collectPoolStats(ctx)
			select {
			case <-ticker.C:
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	m.logger.Info("Collecting database pool stats", zap.Duration("interval", m.config.PoolStatsInterval))
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	sqlDB := m.pool()
	if sqlDB == nil {
		return
	}
	stats := sqlDB.Stats()

	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	if stats.MaxOpenConnections > 0 {
		m.poolUtilization.Record(ctx, float64(stats.InUse)/float64(stats.MaxOpenConnections))
	}
}

// Stop ends pool collection. It may be called more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery counts one statement. Lookups that find nothing are not errors.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation string, table string, duration time.Duration, err error) {
	op := AttrDBOperation.String(orDefault(strings.ToUpper(operation), "UNKNOWN"))

	m.queryTotal.Inc(ctx, op)
	m.queryDuration.RecordDuration(ctx, duration, op)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.queryErrorTotal.Inc(ctx, op)
	}
	if duration > m.config.SlowQueryThreshold {
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(orDefault(table, "unknown")))
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// DBMetricsPlugin feeds every GORM statement into DBMetrics
type DBMetricsPlugin struct {
	metrics *DBMetrics
	logger  *zap.Logger
}

func NewDBMetricsPlugin(metrics *DBMetrics, logger *zap.Logger) *DBMetricsPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBMetricsPlugin{metrics: metrics, logger: logger}
}

func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	return registerAround(db, "db_metrics", markMetricsStart, p.after, nil)
}

type dbMetricsContextKey struct{}

func markMetricsStart(db *gorm.DB) {
	db.Statement.Context = context.WithValue(statementContext(db), dbMetricsContextKey{}, time.Now())
}

func (p *DBMetricsPlugin) after(db *gorm.DB) {
	ctx := statementContext(db)
	var elapsed time.Duration
	if start, ok := ctx.Value(dbMetricsContextKey{}).(time.Time); ok {
		elapsed = time.Since(start)
	}
	p.metrics.RecordQuery(ctx, detectOperationType(db.Statement.SQL.String()), db.Statement.Table, elapsed, db.Error)
}

func statementContext(db *gorm.DB) context.Context {
	if db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}

// detectOperationType reads the leading keyword. ATTACH and DETACH come
// from the catalog import.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "ATTACH", "DETACH", "PRAGMA"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs the metrics plugin on db. It returns nil
// metrics when cfg or the meter provider is disabled; the caller stops the
// returned metrics on shutdown.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || meterProvider == nil || !meterProvider.IsEnabled() {
		logger.Debug("Database metrics not registered")
		return nil, nil
	}

	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)

	if err := db.Use(NewDBMetricsPlugin(metrics, logger)); err != nil {
		return nil, err
	}
	logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold))
	return metrics, nil
}
