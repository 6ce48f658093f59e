package csvlog

import (
    "os"
    "path/filepath"
    "regexp"
    "time"

    "github.com/example/bin-collector/internal/logging"
    "github.com/example/bin-collector/internal/metrics"
)

var monthRe = regexp.MustCompile(`_data_(\d{4})_(\d{2})\.csv$`)

// fileMonth parses the year/month embedded in a CSV log filename and returns
// the first instant of that month. File modification time is deliberately
// ignored; the naming convention is the source of truth.
func fileMonth(name string) (time.Time, bool) {
    m := monthRe.FindStringSubmatch(name)
    if m == nil {
        return time.Time{}, false
    }
    t, err := time.ParseInLocation("2006_01", m[1]+"_"+m[2], time.Local)
    if err != nil || t.IsZero() {
        return time.Time{}, false
    }
    return t, true
}

// Sweep deletes the device's CSV files whose embedded month is older than the
// retention window. Side-effecting only: per-file errors are logged and the
// sweep continues; the caller never fails because of it.
func (w *Writer) Sweep(deviceID string) {
    files, err := filepath.Glob(filepath.Join(w.dir, deviceID+"_data_*.csv"))
    if err != nil {
        logging.Warn("retention_glob_error", logging.F("device_id", deviceID), logging.Err(err))
        return
    }
    cutoff := time.Now().Add(-w.retention)
    for _, file := range files {
        month, ok := fileMonth(filepath.Base(file))
        if !ok || !month.Before(cutoff) {
            continue
        }
        if err := os.Remove(file); err != nil {
            logging.Warn("retention_delete_error", logging.F("file", file), logging.Err(err))
            continue
        }
        metrics.RetentionDeleted.Inc()
        logging.Info("retention_deleted", logging.F("file", file))
    }
}
