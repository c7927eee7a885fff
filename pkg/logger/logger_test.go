package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return record
}

func TestLogReconciliationLevel(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.DebugMode)
	t.Setenv("LOG_LEVEL", "debug")

	tests := []struct {
		name    string
		changed []string
		level   string
	}{
		{"no change", nil, "DEBUG"},
		{"drift fixed", []string{"remaining_capacity"}, "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewWithWriter(&buf).LogReconciliation(context.Background(), "evt-1", tt.changed, 1, time.Millisecond)

			record := decode(t, &buf)
			if record["level"] != tt.level {
				t.Errorf("level = %v, want %s", record["level"], tt.level)
			}
			if record["event_id"] != "evt-1" {
				t.Errorf("event_id = %v", record["event_id"])
			}
		})
	}
}

func TestLogRepairSummaryWarnsOnFailures(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.DebugMode)

	var buf bytes.Buffer
	NewWithWriter(&buf).WithComponent("repair").LogRepairSummary(context.Background(), 2, 5, 1, time.Second)

	record := decode(t, &buf)
	if record["level"] != "WARN" || record["component"] != "repair" {
		t.Errorf("unexpected record: %v", record)
	}
	if record["failed"] != float64(1) {
		t.Errorf("failed = %v, want 1", record["failed"])
	}
}
