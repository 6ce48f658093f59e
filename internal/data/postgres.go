package data

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgconn"
    "github.com/jackc/pgx/v5/pgxpool"

    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/metrics"
)

// Store persists series points into monthly partition tables. Each partition
// is a physical table named "<prefix>_<YYYY-MM>" inside the configured schema.
// With Enabled=false all operations are no-op successes.
type Store struct {
    cfg  collectorcfg.StoreConfig
    pool *pgxpool.Pool

    mu      sync.Mutex
    ensured map[string]struct{}
}

// Point is one tagged and fielded sample. Nil field pointers are stored as
// SQL NULLs; absent wire fields must survive the round trip as nulls.
type Point struct {
    Source    string
    DeviceID  *string
    FillLevel *float64
    Status    *string
    Latitude  *float64
    Longitude *float64
    Address   *string
    Time      time.Time
}

func NewStore(cfg collectorcfg.StoreConfig) (*Store, error) {
    s := &Store{cfg: cfg, ensured: make(map[string]struct{})}
    if !cfg.Enabled {
        return s, nil
    }
    pconf, err := pgxpool.ParseConfig(cfg.DSN)
    if err != nil {
        return nil, err
    }
    if cfg.MaxConns > 0 {
        pconf.MaxConns = int32(cfg.MaxConns)
    }
    if cfg.ConnMaxLifetimeMs > 0 {
        pconf.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetimeMs) * time.Millisecond
    }
    pool, err := pgxpool.NewWithConfig(context.Background(), pconf)
    if err != nil {
        return nil, err
    }
    s.pool = pool
    return s, nil
}

// EnsurePartition checks the catalog for the named partition and creates it
// if absent. At most one physical create is attempted per distinct name per
// process; a concurrent "already exists" from another actor is swallowed.
func (s *Store) EnsurePartition(ctx context.Context, name string) error {
    if s.pool == nil {
        return nil
    }
    s.mu.Lock()
    _, ok := s.ensured[name]
    s.mu.Unlock()
    if ok {
        return nil
    }
    cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    qualified := pgx.Identifier{s.cfg.Schema, name}.Sanitize()
    var reg *string
    if err := s.pool.QueryRow(cctx, `SELECT to_regclass($1)::text`, qualified).Scan(&reg); err != nil {
        return err
    }
    if reg == nil {
        _, err := s.pool.Exec(cctx, `CREATE TABLE IF NOT EXISTS `+qualified+` (
            source      text,
            device_id   text,
            fill_level  double precision,
            status      text,
            latitude    double precision,
            longitude   double precision,
            address     text,
            recorded_at timestamptz NOT NULL,
            ts_ns       bigint NOT NULL
        )`)
        if err != nil {
            var pgErr *pgconn.PgError
            if errors.As(err, &pgErr) && pgErr.Code == "42P07" {
                // lost a create race; the partition exists, which is all we need
                err = nil
            }
        }
        if err != nil {
            return err
        }
        metrics.PartitionsCreated.Inc()
    }
    s.mu.Lock()
    s.ensured[name] = struct{}{}
    s.mu.Unlock()
    return nil
}

// WritePoint inserts one point into the named partition.
func (s *Store) WritePoint(ctx context.Context, partition string, p Point) error {
    if s.pool == nil {
        return nil
    }
    cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    qualified := pgx.Identifier{s.cfg.Schema, partition}.Sanitize()
    _, err := s.pool.Exec(cctx,
        `INSERT INTO `+qualified+` (source, device_id, fill_level, status, latitude, longitude, address, recorded_at, ts_ns)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
        p.Source, p.DeviceID, p.FillLevel, p.Status, p.Latitude, p.Longitude, p.Address, p.Time, p.Time.UnixNano(),
    )
    if err != nil {
        metrics.StoreErrors.Inc()
        return err
    }
    metrics.PointsWritten.Inc()
    return nil
}

func (s *Store) Close() {
    if s.pool != nil {
        s.pool.Close()
    }
}
