package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testDocument() Document {
	c := NewCollector()
	c.Add("lmdb", testResult(time.Millisecond, 100*time.Microsecond, 4096))
	cfg := workload.DefaultConfig()
	cfg.Entries = 1000
	return Document{
		Version:   "test",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Config:    cfg,
		Stores:    []string{"lmdb"},
		Results:   c.Summaries(),
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format Format
	}{
		{"out.csv", FormatCSV},
		{"dir/out.JSON", FormatJSON},
		{"out.yaml", FormatYAML},
		{"out.yml", FormatYAML},
	}
	for _, tt := range tests {
		format, err := FormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.format, format, tt.path)
	}

	_, err := FormatFromPath("out.txt")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, testDocument()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(CSVHeader))
	}
	assert.Equal(t, []string{"lmdb", "LMDB 0.9.31", "write", "1", "1000", "1000.00", "1µs"}, rows[1][:7])
	assert.Equal(t, "read", rows[2][2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, testDocument()))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "test", doc.Version)
	assert.Equal(t, 1000, doc.Config.Entries)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, workload.PhaseWrite, doc.Results[0].Phase)
	assert.Contains(t, buf.String(), `"mean_ns_per_op"`)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, testDocument()))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"lmdb"}, doc.Stores)
	assert.Equal(t, workload.KeyInt, doc.Config.KeyKind)
	require.Len(t, doc.Results, 2)
	assert.InDelta(t, 100, doc.Results[1].MeanNsPerOp, 0.001)
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.json", "out.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Export(path, testDocument()))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "lmdb"), name)
	}

	assert.Error(t, Export(filepath.Join(dir, "out.txt"), testDocument()))
}

func TestWritePrometheus(t *testing.T) {
	var buf bytes.Buffer
	WritePrometheus(&buf, testDocument().Results)
	out := buf.String()

	assert.Contains(t, out, `kvbench_ns_per_op{store="lmdb",phase="write"} 1000`)
	assert.Contains(t, out, `kvbench_ns_per_op{store="lmdb",phase="read"} 100`)
	assert.Contains(t, out, `kvbench_iterations_total{store="lmdb",phase="write"} 1`)
	assert.Contains(t, out, `kvbench_disk_bytes{store="lmdb"} 4096`)
	assert.NotContains(t, out, MetricLatencyP99)
	assert.Equal(t, 1, strings.Count(out, MetricDiskBytes))
}
