package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath selects the export format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (expected .csv, .json, .yaml)", filepath.Ext(path))
	}
}

// Document is the structure of the JSON and YAML exports.
type Document struct {
	Version   string          `json:"version" yaml:"version"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Config    workload.Config `json:"config" yaml:"config"`
	Stores    []string        `json:"stores" yaml:"stores"`
	Warmup    int             `json:"warmup" yaml:"warmup"`
	Results   []Summary       `json:"results" yaml:"results"`
}

// Export writes doc to path in the format selected by its extension.
func Export(path string, doc Document) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %v", err)
	}
	defer file.Close()

	if err := Write(file, format, doc); err != nil {
		return err
	}
	return file.Close()
}

// Write encodes doc to w.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// CSVHeader is the header row of the CSV export.
var CSVHeader = []string{
	"Store", "Engine", "Phase", "Iterations", "Ops",
	"NsPerOp", "DurationPerOp", "MinNsPerOp", "MaxNsPerOp", "StdDevNsPerOp", "OpsPerSec",
	"P50Ns", "P99Ns", "MaxNs", "DiskBytes",
	"Entries", "KeyKind", "KeyWidth", "KeyOrder", "ValueSize", "RandomValues", "Sequential",
	"Sync", "MetaSync", "WriteMap", "Seed",
}

// WriteCSV writes one row per summary with the run parameters repeated on
// every row.
func WriteCSV(w io.Writer, doc Document) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	cfg := doc.Config
	for _, s := range doc.Results {
		row := []string{
			s.Store,
			s.Engine,
			string(s.Phase),
			strconv.Itoa(s.Iterations),
			strconv.Itoa(s.Ops),
			fmt.Sprintf("%.2f", s.MeanNsPerOp),
			time.Duration(s.MeanNsPerOp).String(),
			fmt.Sprintf("%.2f", s.MinNsPerOp),
			fmt.Sprintf("%.2f", s.MaxNsPerOp),
			fmt.Sprintf("%.2f", s.StdDevNsPerOp),
			fmt.Sprintf("%.0f", s.OpsPerSec),
			strconv.FormatInt(s.P50, 10),
			strconv.FormatInt(s.P99, 10),
			strconv.FormatInt(s.Max, 10),
			strconv.FormatInt(s.DiskBytes, 10),
			strconv.Itoa(cfg.Entries),
			string(cfg.KeyKind),
			strconv.Itoa(cfg.KeyWidth),
			string(cfg.KeyOrder),
			strconv.Itoa(cfg.ValueSize),
			strconv.FormatBool(cfg.RandomVals),
			strconv.FormatBool(cfg.Sequential),
			strconv.FormatBool(cfg.Sync),
			strconv.FormatBool(cfg.MetaSync),
			strconv.FormatBool(cfg.WriteMap),
			strconv.FormatUint(cfg.Seed, 10),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s/%s: %v", s.Store, s.Phase, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
