package csvlog

import (
    "encoding/csv"
    "os"
    "path/filepath"
    "strconv"
    "time"

    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/metrics"
)

var header = []string{"DeviceID", "FillLevel", "Time"}

// Record is the tabular projection of one accepted reading. Both keys are
// required; the normalizer guarantees that before a Record is built.
type Record struct {
    DeviceID  string
    FillLevel float64
    Time      time.Time
}

// Writer appends records to per-device monthly CSV files and prunes expired
// files before each append. Single-process, single-writer by design; a
// multi-process deployment needs external file locking.
type Writer struct {
    dir       string
    retention time.Duration
}

func NewWriter(cfg collectorcfg.CSVConfig) (*Writer, error) {
    if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
        return nil, err
    }
    return &Writer{
        dir:       cfg.Directory,
        retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
    }, nil
}

// FileName resolves the monthly file for a device,
// e.g. "bin-42_data_2024_03.csv".
func FileName(deviceID string, t time.Time) string {
    return deviceID + "_data_" + t.Format("2006_01") + ".csv"
}

// Append sweeps retention for the record's device and appends one row,
// writing the header first iff the file is empty at open.
func (w *Writer) Append(rec Record) error {
    w.Sweep(rec.DeviceID)

    path := filepath.Join(w.dir, FileName(rec.DeviceID, rec.Time))
    f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        metrics.CSVErrors.Inc()
        return err
    }
    defer f.Close()

    st, err := f.Stat()
    if err != nil {
        metrics.CSVErrors.Inc()
        return err
    }
    cw := csv.NewWriter(f)
    if st.Size() == 0 {
        if err := cw.Write(header); err != nil {
            metrics.CSVErrors.Inc()
            return err
        }
    }
    row := []string{
        rec.DeviceID,
        strconv.FormatFloat(rec.FillLevel, 'f', -1, 64),
        rec.Time.Format(time.RFC3339),
    }
    if err := cw.Write(row); err != nil {
        metrics.CSVErrors.Inc()
        return err
    }
    cw.Flush()
    if err := cw.Error(); err != nil {
        metrics.CSVErrors.Inc()
        return err
    }
    metrics.CSVRowsWritten.Inc()
    return nil
}
