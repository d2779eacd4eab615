package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/tenk-extract/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "0c9e8f3a-1111-2222-3333-444455556666",
			Schema:    "tenk",
			Mode:      "both",
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{Documents: 7, Accuracy: 0.714},
			CreatedAt: created,
			UpdatedAt: created.Add(3 * time.Minute),
		},
		{
			ID:        "deadbeef-0000-0000-0000-000000000000",
			Schema:    "fundamentals",
			Mode:      "baseline",
			Status:    model.RunStatusRunning,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var sb strings.Builder
	formatRunsList(&sb, runs)
	out := sb.String()

	assert.Contains(t, out, "0c9e8f3a")
	assert.NotContains(t, out, "444455556666")
	assert.Contains(t, out, "71.4%")
	assert.Contains(t, out, "3m0s")
	assert.Contains(t, out, "fundamentals")
	assert.Contains(t, out, "running")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0c9e8f3a", truncateID("0c9e8f3a-1111"))
	assert.Equal(t, "short", truncateID("short"))
}
