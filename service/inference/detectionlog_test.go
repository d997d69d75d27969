package inference

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionLogWritesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "yolo.log")
	log := NewDetectionLog(path)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	log.Write([]Detection{{Label: "bottle", Confidence: 0.8}}, now)
	log.Write(nil, now)
	require.NoError(t, log.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry detectionEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "2025-03-01T10:00:00Z", entry.Time)
	require.Len(t, entry.Detections, 1)
	assert.Equal(t, "bottle", entry.Detections[0].Label)
}

func TestDetectionLogSkipsEmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yolo.log")
	log := NewDetectionLog(path)

	log.Write([]Detection{}, time.Now())
	require.NoError(t, log.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
