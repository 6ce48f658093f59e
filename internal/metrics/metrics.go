package metrics

import (
    "net/http"

    prom "github.com/prometheus/client_golang/prometheus"
    promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    MessagesReceived   = prom.NewCounter(prom.CounterOpts{Name: "collector_messages_received_total", Help: "Bus messages received"})
    ParseErrors        = prom.NewCounter(prom.CounterOpts{Name: "collector_parse_errors_total", Help: "Malformed JSON payloads dropped"})
    TelemetryDiscarded = prom.NewCounter(prom.CounterOpts{Name: "collector_telemetry_discarded_total", Help: "Motion telemetry messages discarded by the classifier"})
    IngestDropped      = prom.NewCounter(prom.CounterOpts{Name: "collector_ingest_dropped_total", Help: "Messages dropped before processing (shutdown in flight)"})

    PointsWritten    = prom.NewCounter(prom.CounterOpts{Name: "collector_points_written_total", Help: "Points written to the series store"})
    StoreErrors      = prom.NewCounter(prom.CounterOpts{Name: "collector_store_errors_total", Help: "Series store write failures"})
    PartitionsCreated = prom.NewCounter(prom.CounterOpts{Name: "collector_partitions_created_total", Help: "Physical partition creations"})
    PartitionErrors  = prom.NewCounter(prom.CounterOpts{Name: "collector_partition_errors_total", Help: "Partition ensure failures (non-fatal)"})

    CSVRowsWritten  = prom.NewCounter(prom.CounterOpts{Name: "collector_csv_rows_total", Help: "Rows appended to device CSV logs"})
    CSVSkipped      = prom.NewCounter(prom.CounterOpts{Name: "collector_csv_skipped_total", Help: "Messages skipped on the CSV path for missing required fields"})
    CSVErrors       = prom.NewCounter(prom.CounterOpts{Name: "collector_csv_errors_total", Help: "CSV append failures"})
    RetentionDeleted = prom.NewCounter(prom.CounterOpts{Name: "collector_retention_deleted_total", Help: "CSV files removed by the retention sweeper"})

    AlertsSent   = prom.NewCounterVec(prom.CounterOpts{Name: "collector_alerts_total", Help: "Alert state transitions"}, []string{"kind"})
    NotifyErrors = prom.NewCounter(prom.CounterOpts{Name: "collector_notify_errors_total", Help: "Per-recipient notification failures"})

    RedisPublished = prom.NewCounter(prom.CounterOpts{Name: "collector_redis_published_total", Help: "Accepted records republished to the redis stream"})
    RedisErrors    = prom.NewCounter(prom.CounterOpts{Name: "collector_redis_errors_total", Help: "Redis republish failures"})
)

func init() {
    prom.MustRegister(
        MessagesReceived, ParseErrors, TelemetryDiscarded, IngestDropped,
        PointsWritten, StoreErrors, PartitionsCreated, PartitionErrors,
        CSVRowsWritten, CSVSkipped, CSVErrors, RetentionDeleted,
        AlertsSent, NotifyErrors,
        RedisPublished, RedisErrors,
    )
}

func Handler() http.Handler { return promhttp.Handler() }
