package collector

import (
    "context"
    "fmt"
    "net/http"
    "time"

    "github.com/example/bin-collector/internal/alert"
    "github.com/example/bin-collector/internal/bus"
    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/csvlog"
    "github.com/example/bin-collector/internal/data"
    "github.com/example/bin-collector/internal/logging"
    "github.com/example/bin-collector/internal/metrics"
    "github.com/example/bin-collector/internal/pipeline"
)

// Collector wires the subscriber, pipeline, stores and alerting together and
// runs them until the context is cancelled.
type Collector struct {
    cfg *collectorcfg.Config
}

func New(configPath string) (*Collector, error) {
    cfg, err := collectorcfg.Load(configPath)
    if err != nil {
        return nil, fmt.Errorf("load config: %w", err)
    }
    return &Collector{cfg: cfg}, nil
}

func (c *Collector) Start(ctx context.Context) error {
    stopLog := logging.Init(c.cfg.Logging)
    defer stopLog()
    logging.Info("collector_start", logging.F("broker", c.cfg.Bus.Broker), logging.F("topic", c.cfg.Bus.Topic))

    store, err := data.NewStore(c.cfg.Store)
    if err != nil {
        // a broken store degrades persistence but never halts intake
        logging.Warn("store_init_error", logging.Err(err))
        store, _ = data.NewStore(collectorcfg.StoreConfig{})
    }

    csvw, err := csvlog.NewWriter(c.cfg.CSV)
    if err != nil {
        return fmt.Errorf("csv directory: %w", err)
    }

    repub, err := data.NewRepublisher(c.cfg.Redis)
    if err != nil {
        logging.Warn("redis_init_error", logging.Err(err))
        repub = nil
    }

    tracker := alert.NewTracker(c.cfg.Alerts, alert.NewMailer(c.cfg.Alerts))
    pipe := pipeline.New(store, csvw, tracker, repub, c.cfg.Store.PartitionPrefix)

    sub := bus.NewSubscriber(c.cfg.Bus)
    if err := sub.Start(ctx); err != nil {
        return fmt.Errorf("bus start: %w", err)
    }

    // single worker: serial processing preserves per-device ordering
    go func() {
        for {
            select {
            case <-ctx.Done():
                return
            case payload := <-sub.Messages():
                pipe.Handle(ctx, payload)
            }
        }
    }()

    mux := http.NewServeMux()
    mux.Handle("/metrics", metrics.Handler())
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ready"))
    })
    server := &http.Server{Addr: c.cfg.Server.Listen, Handler: mux}

    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = server.Shutdown(shutdownCtx)
        _ = sub.Close(shutdownCtx)
        if repub != nil {
            _ = repub.Close()
        }
        store.Close()
    }()

    if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        return err
    }
    return nil
}
