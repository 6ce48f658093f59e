//go:build !integration

package data

import (
	"context"
	"testing"
	"time"

	"github.com/example/bin-collector/internal/collectorcfg"
)

// A disabled store is a no-op success so the pipeline (and alerting, which is
// gated on write success) keeps running in alert-only deployments.
func TestStore_DisabledIsNoOp(t *testing.T) {
	s, err := NewStore(collectorcfg.StoreConfig{})
	if err != nil { t.Fatal(err) }
	defer s.Close()

	ctx := context.Background()
	if err := s.EnsurePartition(ctx, "bin_levels_2024-03"); err != nil {
		t.Fatalf("disabled ensure: %v", err)
	}
	id := "bin-1"
	lvl := 42.0
	if err := s.WritePoint(ctx, "bin_levels_2024-03", Point{Source: "mqtt", DeviceID: &id, FillLevel: &lvl, Time: time.Now()}); err != nil {
		t.Fatalf("disabled write: %v", err)
	}
}

func TestNewStore_BadDSN(t *testing.T) {
	if _, err := NewStore(collectorcfg.StoreConfig{Enabled: true, DSN: "::not a dsn::"}); err == nil {
		t.Fatal("expected a parse error")
	}
}
