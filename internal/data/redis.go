package data

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/metrics"
)

// Republisher mirrors accepted series records onto a capped Redis stream for
// downstream consumers. Disabled instances are no-op.
type Republisher struct {
    cfg          collectorcfg.RedisConfig
    c            *redis.Client
    stream       string
    maxLenApprox int64
}

func NewRepublisher(cfg collectorcfg.RedisConfig) (*Republisher, error) {
    if !cfg.Enabled {
        return &Republisher{cfg: cfg}, nil
    }
    client := redis.NewClient(&redis.Options{
        Addr:         cfg.Addr,
        Username:     cfg.Username,
        Password:     cfg.Password,
        DB:           cfg.DB,
        ReadTimeout:  3 * time.Second,
        WriteTimeout: 3 * time.Second,
        DialTimeout:  3 * time.Second,
    })
    return &Republisher{cfg: cfg, c: client, stream: cfg.Stream, maxLenApprox: cfg.MaxLenApprox}, nil
}

// Publish appends one record payload to the stream, keyed by its ingest ID.
func (r *Republisher) Publish(ctx context.Context, id string, payload []byte) error {
    if r.c == nil || r.stream == "" {
        return nil
    }
    cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    err := r.c.XAdd(cctx, &redis.XAddArgs{
        Stream: r.stream,
        MaxLen: r.maxLenApprox,
        Approx: true,
        Values: map[string]any{"id": id, "payload": payload},
    }).Err()
    if err != nil {
        metrics.RedisErrors.Inc()
        return err
    }
    metrics.RedisPublished.Inc()
    return nil
}

func (r *Republisher) Close() error {
    if r.c != nil {
        return r.c.Close()
    }
    return nil
}
