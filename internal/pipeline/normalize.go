package pipeline

import (
    "strconv"
    "time"

    "github.com/example/bin-collector/internal/csvlog"
)

// Wire field names are fixed by the device fleet firmware.
const (
    keyDeviceID  = "BinID"
    keyFillLevel = "bin_level"
    keyStatus    = "bin_status"
    keyTimestamp = "timestamp"
    keyLatitude  = "Latitude"
    keyLongitude = "Longitude"
    keyAddress   = "Address"
)

// SeriesRecord is the rich projection for the time-series store. Nil fields
// are persisted (and republished) as nulls, never omitted.
type SeriesRecord struct {
    DeviceID  *string  `json:"device_id"`
    FillLevel *float64 `json:"fill_level"`
    Status    *string  `json:"status"`
    Latitude  *float64 `json:"latitude"`
    Longitude *float64 `json:"longitude"`
    Address   *string  `json:"address"`
    Time      time.Time `json:"time"`
}

// ToCSV builds the tabular projection. The CSV format cannot represent a row
// without its indexing keys, so a missing device ID or fill level yields
// not-ok (a silent skip, not an error). Zero values are preserved.
func ToCSV(raw map[string]any) (csvlog.Record, bool) {
    id := stringField(raw, keyDeviceID)
    lvl := floatField(raw, keyFillLevel)
    if id == nil || lvl == nil {
        return csvlog.Record{}, false
    }
    return csvlog.Record{
        DeviceID:  *id,
        FillLevel: *lvl,
        Time:      resolveTimestamp(raw),
    }, true
}

// ToSeries builds the series projection. It always succeeds for a parsed
// payload; absent fields stay nil because the store tolerates sparse points.
func ToSeries(raw map[string]any) SeriesRecord {
    return SeriesRecord{
        DeviceID:  stringField(raw, keyDeviceID),
        FillLevel: floatField(raw, keyFillLevel),
        Status:    stringField(raw, keyStatus),
        Latitude:  floatField(raw, keyLatitude),
        Longitude: floatField(raw, keyLongitude),
        Address:   stringField(raw, keyAddress),
        Time:      resolveTimestamp(raw),
    }
}

// resolveTimestamp takes the message's own timestamp when present and
// parseable, else the current wall clock in the local timezone. The fallback
// is ingestion time, not publish time.
func resolveTimestamp(raw map[string]any) time.Time {
    if s, ok := raw[keyTimestamp].(string); ok {
        for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
            if t, err := time.Parse(layout, s); err == nil {
                return t
            }
        }
        // offset-less ISO-8601, read in the local timezone
        if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err == nil {
            return t
        }
    }
    return time.Now()
}

// stringField returns the value as a string when it is a string or a number
// (device IDs arrive both ways), nil otherwise.
func stringField(raw map[string]any, key string) *string {
    switch v := raw[key].(type) {
    case string:
        return &v
    case float64:
        s := strconv.FormatFloat(v, 'f', -1, 64)
        return &s
    default:
        return nil
    }
}

func floatField(raw map[string]any, key string) *float64 {
    if v, ok := raw[key].(float64); ok {
        return &v
    }
    return nil
}
