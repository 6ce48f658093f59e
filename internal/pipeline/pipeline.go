package pipeline

import (
    "context"
    "encoding/json"

    ulid "github.com/oklog/ulid/v2"

    "github.com/example/bin-collector/internal/alert"
    "github.com/example/bin-collector/internal/csvlog"
    "github.com/example/bin-collector/internal/data"
    "github.com/example/bin-collector/internal/logging"
    "github.com/example/bin-collector/internal/metrics"
)

const sourceTag = "mqtt"

// Pipeline processes one bus message at a time: parse, classify, then fan a
// candidate into the series path (partition ensure, point write, alert
// evaluation, optional republish) and the CSV path (retention sweep, append).
// Every failure is local: logged, counted, and the pipeline moves on. No
// retries anywhere; at-least-once delivery upstream means duplicates produce
// duplicate rows and points by design.
type Pipeline struct {
    store   *data.Store
    csv     *csvlog.Writer
    tracker *alert.Tracker
    repub   *data.Republisher
    prefix  string
    events  *logging.EventLogger
}

func New(store *data.Store, csv *csvlog.Writer, tracker *alert.Tracker, repub *data.Republisher, partitionPrefix string) *Pipeline {
    return &Pipeline{
        store:   store,
        csv:     csv,
        tracker: tracker,
        repub:   repub,
        prefix:  partitionPrefix,
        events:  logging.NewEventLogger(),
    }
}

// Handle processes a single raw payload to completion.
func (p *Pipeline) Handle(ctx context.Context, payload []byte) {
    metrics.MessagesReceived.Inc()
    ingestID := ulid.Make().String()

    var raw map[string]any
    if err := json.Unmarshal(payload, &raw); err != nil {
        metrics.ParseErrors.Inc()
        p.events.Ingest("parse", "failed", ingestID, "", err.Error())
        return
    }
    if Classify(raw) == ClassTelemetry {
        metrics.TelemetryDiscarded.Inc()
        p.events.Ingest("classify", "dropped", ingestID, "", "motion telemetry")
        return
    }

    p.handleSeries(ctx, ingestID, raw)
    p.handleCSV(ingestID, raw)
}

func (p *Pipeline) handleSeries(ctx context.Context, ingestID string, raw map[string]any) {
    rec := ToSeries(raw)
    deviceID := ""
    if rec.DeviceID != nil {
        deviceID = *rec.DeviceID
    }

    partition := data.PartitionName(p.prefix, rec.Time)
    if err := p.store.EnsurePartition(ctx, partition); err != nil {
        // non-fatal: the partition may already exist from a concurrent
        // actor, so the write is attempted regardless
        metrics.PartitionErrors.Inc()
        p.events.Store("partition_ensure", "failed", partition, deviceID, err.Error())
    }

    pt := data.Point{
        Source:    sourceTag,
        DeviceID:  rec.DeviceID,
        FillLevel: rec.FillLevel,
        Status:    rec.Status,
        Latitude:  rec.Latitude,
        Longitude: rec.Longitude,
        Address:   rec.Address,
        Time:      rec.Time,
    }
    if err := p.store.WritePoint(ctx, partition, pt); err != nil {
        p.events.Store("point_write", "failed", partition, deviceID, err.Error())
        return
    }
    p.events.Store("point_write", "success", partition, deviceID, "")

    // Alerting is gated on a confirmed write so it never fires on data that
    // failed to persist.
    if rec.DeviceID != nil && rec.FillLevel != nil {
        p.tracker.Evaluate(*rec.DeviceID, *rec.FillLevel)
    }

    if p.repub != nil {
        if b, err := json.Marshal(rec); err == nil {
            if err := p.repub.Publish(ctx, ingestID, b); err != nil {
                p.events.Store("republish", "failed", "", deviceID, err.Error())
            }
        }
    }
}

func (p *Pipeline) handleCSV(ingestID string, raw map[string]any) {
    rec, ok := ToCSV(raw)
    if !ok {
        metrics.CSVSkipped.Inc()
        p.events.Ingest("normalize", "skipped", ingestID, "", "missing device id or fill level")
        return
    }
    if err := p.csv.Append(rec); err != nil {
        p.events.Store("csv_append", "failed", "", rec.DeviceID, err.Error())
        return
    }
    p.events.Store("csv_append", "success", "", rec.DeviceID, "")
}
