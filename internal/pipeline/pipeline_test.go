package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/example/bin-collector/internal/alert"
	"github.com/example/bin-collector/internal/collectorcfg"
	"github.com/example/bin-collector/internal/csvlog"
	"github.com/example/bin-collector/internal/data"
)

type fakeNotifier struct{ subjects []string }

func (f *fakeNotifier) Notify(subject, _ string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func newTestPipeline(t *testing.T) (*Pipeline, string, *fakeNotifier) {
	t.Helper()
	dir := t.TempDir()
	store, err := data.NewStore(collectorcfg.StoreConfig{})
	if err != nil { t.Fatal(err) }
	csvw, err := csvlog.NewWriter(collectorcfg.CSVConfig{Directory: dir, RetentionDays: 90})
	if err != nil { t.Fatal(err) }
	n := &fakeNotifier{}
	tracker := alert.NewTracker(collectorcfg.AlertsConfig{FullThreshold: 80, ClearThreshold: 50}, n)
	return New(store, csvw, tracker, nil, "bin_levels"), dir, n
}

func csvFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil { t.Fatal(err) }
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestHandle_TelemetryProducesNothing(t *testing.T) {
	p, dir, n := newTestPipeline(t)
	p.Handle(context.Background(), []byte(`{"gyroX":0.1,"accY":-0.2,"BinID":"bin-1","bin_level":99}`))
	if files := csvFiles(t, dir); len(files) != 0 {
		t.Fatalf("telemetry must not reach the CSV path: %v", files)
	}
	if len(n.subjects) != 0 {
		t.Fatalf("telemetry must not alert: %v", n.subjects)
	}
}

func TestHandle_MalformedJSONDropped(t *testing.T) {
	p, dir, _ := newTestPipeline(t)
	p.Handle(context.Background(), []byte(`{"BinID": "bin-1",`))
	p.Handle(context.Background(), []byte(`[1,2,3]`)) // not an object
	if files := csvFiles(t, dir); len(files) != 0 {
		t.Fatalf("malformed payloads must be dropped: %v", files)
	}
}

func TestHandle_AppendsOneRowWithHeader(t *testing.T) {
	p, dir, _ := newTestPipeline(t)
	p.Handle(context.Background(), []byte(`{"BinID":"bin-7","bin_level":42.5}`))
	files := csvFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("expected one CSV file, got %v", files)
	}
	b, err := os.ReadFile(dir + "/" + files[0])
	if err != nil { t.Fatal(err) }
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines: %q", len(lines), lines)
	}
	if lines[0] != "DeviceID,FillLevel,Time" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "bin-7,42.5,") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestHandle_DuplicateDeliveryDuplicatesRows(t *testing.T) {
	p, dir, _ := newTestPipeline(t)
	// current timestamp: a dated one would age past the retention window
	// and get swept out from under the second delivery
	msg := []byte(fmt.Sprintf(`{"BinID":"bin-7","bin_level":42.5,"timestamp":%q}`, time.Now().Format(time.RFC3339)))
	p.Handle(context.Background(), msg)
	p.Handle(context.Background(), msg)
	files := csvFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("same month, same device: expected one file, got %v", files)
	}
	b, err := os.ReadFile(dir + "/" + files[0])
	if err != nil { t.Fatal(err) }
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("no dedup: expected header + 2 rows, got %d", len(lines))
	}
}

func TestHandle_MissingKeysSkipsCSVOnly(t *testing.T) {
	p, dir, n := newTestPipeline(t)
	// series path still runs, but the CSV projection is skipped and the
	// missing device id keeps the alert tracker out of it
	p.Handle(context.Background(), []byte(`{"bin_level":90.0,"Address":"somewhere"}`))
	if files := csvFiles(t, dir); len(files) != 0 {
		t.Fatalf("missing BinID must skip the CSV row: %v", files)
	}
	if len(n.subjects) != 0 {
		t.Fatalf("no device id means no alert: %v", n.subjects)
	}
}

func TestHandle_AlertSequence(t *testing.T) {
	p, _, n := newTestPipeline(t)
	levels := []float64{30, 85, 90, 40, 85}
	for _, lvl := range levels {
		p.Handle(context.Background(), []byte(fmt.Sprintf(`{"BinID":"bin-9","bin_level":%v}`, lvl)))
	}
	// notifications at indices 1 (full), 3 (cleared), 4 (full again)
	if len(n.subjects) != 3 {
		t.Fatalf("expected 3 notifications, got %d: %v", len(n.subjects), n.subjects)
	}
	if !strings.Contains(n.subjects[0], "High Fill Level") {
		t.Fatalf("first notification should be full: %q", n.subjects[0])
	}
	if !strings.Contains(n.subjects[1], "Bin Cleared") {
		t.Fatalf("second notification should be cleared: %q", n.subjects[1])
	}
	if !strings.Contains(n.subjects[2], "High Fill Level") {
		t.Fatalf("third notification should be full again: %q", n.subjects[2])
	}
}
