package otelhooks

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return rm
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
				}
				return sum
			}
		}
	}
	t.Fatalf("%s not found", name)
	return metricdata.Sum[int64]{}
}

func TestLookupsByResult(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	h, err := New(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	h.Hit("forum.total")
	h.Hit("forum.total")
	h.Miss("forum.total")
	h.StoreError("forum.total", "set", errors.New("down"))

	rm := collect(t, reader)
	lookups := findSum(t, rm, "memocache.lookups")
	byResult := map[string]int64{}
	for _, dp := range lookups.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("memocache.result"))
		byResult[v.AsString()] = dp.Value
	}
	if byResult["hit"] != 2 || byResult["miss"] != 1 {
		t.Fatalf("lookups=%v", byResult)
	}

	errs := findSum(t, rm, "memocache.store.errors")
	if len(errs.DataPoints) != 1 || errs.DataPoints[0].Value != 1 {
		t.Fatalf("store errors=%+v", errs.DataPoints)
	}
	op, _ := errs.DataPoints[0].Attributes.Value(attribute.Key("memocache.op"))
	if op.AsString() != "set" {
		t.Fatalf("op=%q", op.AsString())
	}
}
