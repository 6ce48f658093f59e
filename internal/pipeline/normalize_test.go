package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestToCSV_RequiresBothKeys(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		ok   bool
	}{
		{"both present", map[string]any{"BinID": "bin-1", "bin_level": 55.5}, true},
		{"zero level preserved", map[string]any{"BinID": "bin-1", "bin_level": 0.0}, true},
		{"missing level", map[string]any{"BinID": "bin-1"}, false},
		{"missing id", map[string]any{"bin_level": 55.5}, false},
		{"null id", map[string]any{"BinID": nil, "bin_level": 55.5}, false},
		{"empty", map[string]any{}, false},
	}
	for _, tc := range cases {
		rec, ok := ToCSV(tc.raw)
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
		}
		if ok && rec.DeviceID != "bin-1" {
			t.Fatalf("%s: device id %q", tc.name, rec.DeviceID)
		}
	}
}

func TestToCSV_ZeroLevelKept(t *testing.T) {
	rec, ok := ToCSV(map[string]any{"BinID": "bin-1", "bin_level": 0.0})
	if !ok || rec.FillLevel != 0 {
		t.Fatalf("zero fill level must be preserved: ok=%v rec=%+v", ok, rec)
	}
}

func TestToCSV_NumericDeviceID(t *testing.T) {
	rec, ok := ToCSV(map[string]any{"BinID": 17.0, "bin_level": 10.0})
	if !ok || rec.DeviceID != "17" {
		t.Fatalf("numeric ids are stringified: ok=%v rec=%+v", ok, rec)
	}
}

func TestToSeries_AlwaysReturnsRecord(t *testing.T) {
	rec := ToSeries(map[string]any{})
	if rec.DeviceID != nil || rec.FillLevel != nil || rec.Status != nil ||
		rec.Latitude != nil || rec.Longitude != nil || rec.Address != nil {
		t.Fatalf("absent fields must stay nil: %+v", rec)
	}
	if rec.Time.IsZero() {
		t.Fatal("timestamp fallback missing")
	}
}

func TestToSeries_AllFields(t *testing.T) {
	rec := ToSeries(map[string]any{
		"BinID": "bin-2", "bin_level": 61.0, "bin_status": "active",
		"Latitude": 1.29, "Longitude": 103.85, "Address": "1 Example Way",
		"timestamp": "2024-03-15T10:30:00+08:00",
	})
	if rec.DeviceID == nil || *rec.DeviceID != "bin-2" {
		t.Fatalf("device id: %+v", rec.DeviceID)
	}
	if rec.FillLevel == nil || *rec.FillLevel != 61.0 {
		t.Fatalf("fill level: %+v", rec.FillLevel)
	}
	if rec.Time.Year() != 2024 || rec.Time.Month() != time.March || rec.Time.Day() != 15 {
		t.Fatalf("timestamp not taken from message: %v", rec.Time)
	}
}

func TestResolveTimestamp_FallbackIsNow(t *testing.T) {
	before := time.Now()
	got := resolveTimestamp(map[string]any{"timestamp": "not a time"})
	if got.Before(before) || time.Since(got) > time.Minute {
		t.Fatalf("expected wall-clock fallback, got %v", got)
	}
}

func TestSeriesRecord_NullsSerialized(t *testing.T) {
	b, err := json.Marshal(ToSeries(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{`"device_id":null`, `"fill_level":null`, `"status":null`, `"latitude":null`, `"longitude":null`, `"address":null`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
}
