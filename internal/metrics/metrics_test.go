package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(Namespace, reg)

	c.RecordTimestep()
	c.RecordTimestep()
	c.RecordRecords(10, 7)
	c.RecordInterpolation("air_temperature")
	c.RecordWarning("vct_empty")
	c.RecordRun("ml2pl", StatusOK, 2*time.Second)
	c.RecordAPIRequest("/v1/remap", "POST", "200", time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"timesteps", testutil.ToFloat64(c.TimestepsTotal), 2},
		{"records read", testutil.ToFloat64(c.RecordsReadTotal), 10},
		{"records written", testutil.ToFloat64(c.RecordsWrittenTotal), 7},
		{"interpolated", testutil.ToFloat64(c.FieldsInterpolatedTotal.WithLabelValues("air_temperature")), 1},
		{"warnings", testutil.ToFloat64(c.WarningsTotal.WithLabelValues("vct_empty")), 1},
		{"runs", testutil.ToFloat64(c.RunsTotal.WithLabelValues("ml2pl", StatusOK)), 1},
		{"api requests", testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/v1/remap", "POST", "200")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, tt.got)
			}
		})
	}

	if n := testutil.CollectAndCount(c.RunDuration); n != 1 {
		t.Errorf("Expected 1 run duration series, got %d", n)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.RecordTimestep()
	c.RecordRecords(1, 1)
	c.RecordInterpolation("geopotential")
	c.RecordWarning("range")
	c.RecordRun("ml2hl", StatusFailed, time.Second)
	c.RecordAPIRequest("/health", "GET", "200", time.Millisecond)
}

func TestNewCollector_SeparateRegistries(t *testing.T) {
	// Two collectors on distinct registries must not conflict.
	_ = NewCollector(Namespace, prometheus.NewRegistry())
	_ = NewCollector(Namespace, prometheus.NewRegistry())
}
