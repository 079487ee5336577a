package report

// Names of the browser performance counters reported by the instrumentation.
const (
	ScriptDuration      = "ScriptDuration"
	HeapUsedBytes       = "JSHeapUsedSize"
	HeapTotalBytes      = "JSHeapTotalSize"
	LayoutCount         = "LayoutCount"
	LayoutDuration      = "LayoutDuration"
	RecalcStyleCount    = "RecalcStyleCount"
	RecalcStyleDuration = "RecalcStyleDuration"
	TaskDuration        = "TaskDuration"
	ThreadTime          = "ThreadTime"
	ProcessTime         = "ProcessTime"
	JSEventListeners    = "JSEventListeners"
	LayoutObjects       = "LayoutObjects"
	Nodes               = "Nodes"
	Resources           = "Resources"

	HostCPUUsagePct  = "HostCPUUsagePct"
	HostMemUsedBytes = "HostMemUsedBytes"
	HostMemUsedPct   = "HostMemUsedPct"
)

// BytesPerMB converts HeapUsedBytes readings to megabytes.
const BytesPerMB = 1048576

// KnownMetrics is the allow-list of counter names the harness understands. Anything else coming out of the
// instrumentation is ignored.
var KnownMetrics = []string{
	ScriptDuration,
	HeapUsedBytes,
	HeapTotalBytes,
	LayoutCount,
	LayoutDuration,
	RecalcStyleCount,
	RecalcStyleDuration,
	TaskDuration,
	ThreadTime,
	ProcessTime,
	JSEventListeners,
	LayoutObjects,
	Nodes,
	Resources,
	HostCPUUsagePct,
	HostMemUsedBytes,
	HostMemUsedPct,
}

// DefaultMetrics is the metric selection used when none is configured.
var DefaultMetrics = []string{LayoutCount, ScriptDuration, HeapUsedBytes}

func IsKnownMetric(name string) bool {
	for _, m := range KnownMetrics {
		if m == name {
			return true
		}
	}
	return false
}

type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Sample is one reading of the selected counters, tagged with the node count at the time of the reading.
type Sample struct {
	NodeCount int      `json:"nodeCount"`
	TimeMs    float64  `json:"time"`
	Metrics   []Metric `json:"metrics"`
}

// Lookup returns the value of the named counter in this sample.
func (s Sample) Lookup(name string) (float64, bool) {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

type Checkpoint struct {
	NodeCount int     `json:"nodeCount"`
	TimeMs    float64 `json:"time"`
}

type Point struct {
	NodeCount int     `json:"nodeCount"`
	Value     float64 `json:"value"`
}

type MetricSeries struct {
	System string
	Metric string
	Points []Point
}

// ComparisonPoint holds the readings of both compared systems at one node count. A nil value means the system
// has no reading there.
type ComparisonPoint struct {
	NodeCount int      `json:"nodeCount"`
	ValueA    *float64 `json:"valueA"`
	ValueB    *float64 `json:"valueB"`
}

func (p ComparisonPoint) HasData() bool {
	return p.ValueA != nil || p.ValueB != nil
}

// Value returns the reading of series i (0 for A, 1 for B).
func (p ComparisonPoint) Value(i int) *float64 {
	if i == 0 {
		return p.ValueA
	}
	return p.ValueB
}

type ComparisonDataset struct {
	Metric string
	Labels [2]string
	Points []ComparisonPoint
}

func (d *ComparisonDataset) NodeCounts() []int {
	out := make([]int, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.NodeCount
	}
	return out
}

// Values returns series i aligned with NodeCounts.
func (d *ComparisonDataset) Values(i int) []*float64 {
	out := make([]*float64, len(d.Points))
	for j, p := range d.Points {
		out[j] = p.Value(i)
	}
	return out
}

type LatencySummary struct {
	Count  int64
	MinMs  float64
	MeanMs float64
	P50Ms  float64
	P95Ms  float64
	P99Ms  float64
	MaxMs  float64
}

type SeriesSummary struct {
	Metric string
	Count  int
	Min    float64
	Mean   float64
	Median float64
	P95    float64
	Max    float64
}

const (
	StopCompleted = "completed"
	StopTimeout   = "timeout"
	StopCancelled = "cancelled"
)

// RunResult is everything one benchmark run of one system produced.
type RunResult struct {
	Name           string
	System         string
	Label          string
	Input          map[string]any
	Error          string // non-empty iff the run failed before or during driving
	StopReason     string
	FinalNodeCount int
	StepErrors     int
	SkippedTicks   int
	DurationSec    float64
	Latency        *LatencySummary
	Summaries      []SeriesSummary
	TracePath      string
	Samples        []Sample     `json:"-"`
	Checkpoints    []Checkpoint `json:"-"`
}
