package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	nodeCountArtifact   = "nodecount"
	perfMetricsArtifact = "perfMetrics"
	ReportFileName      = "report.json"
)

func NodeCountFileName(system string) string {
	return fmt.Sprintf("%s-%s.json", system, nodeCountArtifact)
}

func PerfMetricsFileName(system string) string {
	return fmt.Sprintf("%s-%s.json", system, perfMetricsArtifact)
}

func MetricFileName(system, metric string) string {
	return fmt.Sprintf("%s-%s.json", system, metric)
}

// Writer persists run artifacts as JSON files in one results directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	err := os.MkdirAll(dir, fs.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("creating result dir failed: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) WriteJSON(name string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshalling %s failed: %w", name, err)
	}
	err = os.WriteFile(filepath.Join(w.dir, name), buf, 0o644)
	if err != nil {
		return fmt.Errorf("writing %s failed: %w", name, err)
	}
	return nil
}

// WriteRun writes the checkpoints, the raw samples and one file per metric series of a run. A failed artifact is
// logged and skipped so the remaining artifacts still get written; the returned error joins all failures.
func (w *Writer) WriteRun(res *RunResult, series []MetricSeries) error {
	var errs []error
	write := func(name string, v any) {
		err := w.WriteJSON(name, v)
		if err != nil {
			slog.Error("ReportWriter: failed to write artifact", slog.String("file", name), slog.String("error", err.Error()))
			errs = append(errs, err)
			return
		}
		slog.Info("ReportWriter: wrote artifact", slog.String("file", filepath.Join(w.dir, name)))
	}

	checkpoints := res.Checkpoints
	if checkpoints == nil {
		checkpoints = []Checkpoint{}
	}
	samples := res.Samples
	if samples == nil {
		samples = []Sample{}
	}
	write(NodeCountFileName(res.System), checkpoints)
	write(PerfMetricsFileName(res.System), samples)
	for _, s := range series {
		points := s.Points
		if points == nil {
			points = []Point{}
		}
		write(MetricFileName(res.System, s.Metric), points)
	}
	return errors.Join(errs...)
}

func readJSON(path string, v any) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	err = json.Unmarshal(buf, v)
	if err != nil {
		return fmt.Errorf("unmarshalling %s failed: %w", path, err)
	}
	return nil
}

func ReadSamples(dir, system string) ([]Sample, error) {
	out := []Sample{}
	err := readJSON(filepath.Join(dir, PerfMetricsFileName(system)), &out)
	return out, err
}

func ReadCheckpoints(dir, system string) ([]Checkpoint, error) {
	out := []Checkpoint{}
	err := readJSON(filepath.Join(dir, NodeCountFileName(system)), &out)
	return out, err
}
