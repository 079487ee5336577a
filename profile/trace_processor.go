package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/Octogonapus/EditorBenchmark/report"
)

type TraceEvent struct {
	Cat  string  `json:"cat"`
	Name string  `json:"name"`
	Ts   float64 `json:"ts"`  // microseconds
	Dur  float64 `json:"dur"` // microseconds
	Tts  float64 `json:"tts"` // thread clock, microseconds
	Args struct {
		Data *struct {
			JSHeapSizeUsed float64 `json:"jsHeapSizeUsed"`
		} `json:"data"`
	} `json:"args"`
}

// ExtractedData has one entry per bucket. Durations and times are cumulative microseconds, heap sizes are the last
// reading in bytes.
type ExtractedData struct {
	ScriptDurations []float64 `json:"scriptDurations"`
	JSHeapSizes     []float64 `json:"jsHeapSizes"`
	LayoutCounts    []float64 `json:"layoutCounts"`
	ThreadTimes     []float64 `json:"threadTimes"`
}

const DefaultBucket = time.Second

var layoutEventNames = []string{"Layout", "UpdateLayerTree", "Paint"}

// ReadTrace decodes a trace file. Both the object form ({"traceEvents": [...]}) and the bare array form are
// accepted.
func ReadTrace(r io.Reader) ([]TraceEvent, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading trace failed: %w", err)
	}
	buf = bytes.TrimSpace(buf)

	if len(buf) > 0 && buf[0] == '[' {
		var events []TraceEvent
		if err := json.Unmarshal(buf, &events); err != nil {
			return nil, fmt.Errorf("decoding trace failed: %w", err)
		}
		return events, nil
	}

	var obj struct {
		TraceEvents []TraceEvent `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, fmt.Errorf("decoding trace failed: %w", err)
	}
	return obj.TraceEvents, nil
}

// ProcessTrace buckets trace events by time. Time starts at the first non-metadata event. One bucket is pushed for
// every full bucket interval that elapsed before an event, holding the totals up to that point, and a final bucket
// holds the totals over the whole trace.
func ProcessTrace(events []TraceEvent, bucket time.Duration) ExtractedData {
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	interval := float64(bucket.Microseconds())

	var out ExtractedData
	var scriptDuration, layoutCount, threadTime, heapSize float64
	push := func() {
		out.ScriptDurations = append(out.ScriptDurations, scriptDuration)
		out.JSHeapSizes = append(out.JSHeapSizes, heapSize)
		out.LayoutCounts = append(out.LayoutCounts, layoutCount)
		out.ThreadTimes = append(out.ThreadTimes, threadTime)
	}

	var initial float64
	for _, ev := range events {
		if ev.Cat != "__metadata" {
			initial = ev.Ts
			break
		}
	}

	var bucketEnd = interval
	for _, ev := range events {
		relative := ev.Ts - initial
		for relative >= bucketEnd {
			push()
			bucketEnd += interval
		}

		if ev.Cat == "v8.execute" && ev.Dur > 0 {
			scriptDuration += ev.Dur
		}
		if ev.Name == "UpdateCounters" && ev.Args.Data != nil && ev.Args.Data.JSHeapSizeUsed > 0 {
			heapSize = ev.Args.Data.JSHeapSizeUsed
		}
		if slices.Contains(layoutEventNames, ev.Name) {
			layoutCount++
		}
		if ev.Tts > 0 {
			threadTime += ev.Tts
		}
	}
	push()
	return out
}

// Samples converts the buckets into samples so they can be charted like sampled counters. The node count of a
// sample is its bucket index, and units match the DevTools counters (seconds and bytes).
func (d ExtractedData) Samples(bucket time.Duration) []report.Sample {
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	out := make([]report.Sample, len(d.ScriptDurations))
	for i := range d.ScriptDurations {
		out[i] = report.Sample{
			NodeCount: i,
			TimeMs:    float64(i+1) * float64(bucket.Milliseconds()),
			Metrics: []report.Metric{
				{Name: report.ScriptDuration, Value: d.ScriptDurations[i] / 1e6},
				{Name: report.HeapUsedBytes, Value: d.JSHeapSizes[i]},
				{Name: report.LayoutCount, Value: d.LayoutCounts[i]},
				{Name: report.ThreadTime, Value: d.ThreadTimes[i] / 1e6},
			},
		}
	}
	return out
}
