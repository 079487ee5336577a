package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	_ "github.com/Octogonapus/EditorBenchmark/benchmark/format"
	_ "github.com/Octogonapus/EditorBenchmark/benchmark/paste"
	"github.com/Octogonapus/EditorBenchmark/benchmark/stress"
	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/chart"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/publish"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/pflag"
)

const noRenderer = "none"

func addSystemFlags(flags *pflag.FlagSet) {
	ids := []string{}
	for _, s := range editor.All() {
		ids = append(ids, s.ID)
	}
	flags.StringSlice("systems", ids, fmt.Sprintf("The compared editors, series A first. Any of: %s.", editor.ExplainSystems()))
}

func addBrowserFlags(flags *pflag.FlagSet) {
	def := browser.DefaultOptions()
	flags.String("base-url", "http://localhost:3000", "Where the demo app serving both editors is running.")
	flags.Bool("headless", def.Headless, "Run the browser without a window.")
	flags.String("exec-path", "", "The browser binary. Found on PATH when empty.")
	flags.String("min-browser-version", def.MinVersion, "Refuse to run against an older browser.")
	flags.Duration("element-timeout", def.ElementTimeout, "How long to wait for an element before giving up on a step.")
}

func addRendererFlag(flags *pflag.FlagSet) {
	flags.String("renderer", string(chart.Gonum), fmt.Sprintf("The chart renderer, or %q to skip graphs. Must be one of: %s.", noRenderer, chart.ExplainRenderers()))
}

func (a *app) systems() ([]editor.System, error) {
	var out []editor.System
	for _, name := range a.v.GetStringSlice("systems") {
		for _, part := range strings.Split(name, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s, err := editor.Lookup(part)
			if err != nil {
				return nil, err
			}
			if slices.ContainsFunc(out, func(o editor.System) bool { return o.ID == s.ID }) {
				return nil, fmt.Errorf("editor %s is listed more than once", s.ID)
			}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one system is required")
	}
	return out, nil
}

func (a *app) metricNames() []string {
	var out []string
	for _, m := range a.v.GetStringSlice("metrics") {
		for _, part := range strings.Split(m, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (a *app) definition() (benchmark.Definition, error) {
	def := benchmark.Definition{
		Iterations:         a.v.GetInt("iterations"),
		Interval:           a.v.GetDuration("interval"),
		Metrics:            a.metricNames(),
		CheckpointInterval: a.v.GetInt("checkpoint"),
		Timeout:            a.v.GetDuration("timeout"),
	}
	return def, def.Validate()
}

func (a *app) browserOptions() browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = a.v.GetBool("headless")
	opts.ExecPath = a.v.GetString("exec-path")
	opts.MinVersion = a.v.GetString("min-browser-version")
	if d := a.v.GetDuration("element-timeout"); d > 0 {
		opts.ElementTimeout = d
	}
	return opts
}

// renderer returns nil when graphs are disabled.
func (a *app) renderer() (chart.Renderer, error) {
	kind := a.v.GetString("renderer")
	if kind == "" || kind == noRenderer {
		return nil, nil
	}
	return chart.NewRenderer(chart.RendererKind(kind))
}

// scenarios loads every scenario file in order. Without a file, the stress scenario is run.
func (a *app) scenarios() ([]benchmark.Scenario, error) {
	files := a.v.GetStringSlice("scenario-file")
	if len(files) == 0 {
		return []benchmark.Scenario{stress.NewStressBenchmark(&stress.StressBenchmarkInput{})}, nil
	}
	var out []benchmark.Scenario
	for _, f := range files {
		buf, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading scenario file failed: %w", err)
		}
		scenarios, err := parseScenarioFile(buf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, scenarios...)
	}
	return out, nil
}

func parseScenarioFile(buf []byte) ([]benchmark.Scenario, error) {
	file := benchmark.ScenarioFile{}
	err := json.Unmarshal(buf, &file)
	if err != nil {
		return nil, fmt.Errorf("decoding scenario file failed: %w", err)
	}
	var out []benchmark.Scenario
	for _, ss := range file {
		s, err := benchmark.DeserializeScenario(&ss)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func addPublishFlags(flags *pflag.FlagSet) {
	flags.String("publish", string(publish.None), fmt.Sprintf("Where to copy the results directory after the run. Must be one of: %s.", publish.ExplainPublishers()))
	flags.String("s3-bucket", "", "The bucket results are uploaded to.")
	flags.String("s3-prefix", "", "The key prefix of the uploaded results. A dated random prefix is generated when empty.")
	flags.Bool("s3-create-bucket", false, "Create the bucket if it does not exist.")
	flags.Int("upload-concurrency", 8, "The number of goroutines used to upload results.")
	flags.String("sftp-host", "", "The host results are copied to.")
	flags.Int("sftp-port", 22, "The ssh port of the sftp host.")
	flags.String("sftp-user", "", "The ssh user.")
	flags.String("sftp-key-file", "", "A private key used to log in.")
	flags.String("sftp-password", "", "A password used to log in.")
	flags.String("sftp-known-hosts", "", "A known_hosts file used to verify the host key. The host key is not verified when empty.")
	flags.String("sftp-remote-dir", ".", "The remote directory results are copied into.")
}

// publisher returns nil when results stay local.
func (a *app) publisher(ctx context.Context) (publish.Publisher, error) {
	switch kind := publish.PublisherKind(a.v.GetString("publish")); kind {
	case "", publish.None:
		return nil, nil
	case publish.S3:
		if a.v.GetString("s3-bucket") == "" {
			return nil, fmt.Errorf("s3-bucket is required to publish to s3")
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading aws config failed: %w", err)
		}
		return publish.NewS3Publisher(&publish.S3PublisherInput{
			AwsConfig:         cfg,
			Bucket:            a.v.GetString("s3-bucket"),
			Prefix:            a.v.GetString("s3-prefix"),
			CreateBucket:      a.v.GetBool("s3-create-bucket"),
			UploadConcurrency: a.v.GetInt("upload-concurrency"),
		}), nil
	case publish.SFTP:
		return publish.NewSFTPPublisher(&publish.SFTPPublisherInput{
			User:           a.v.GetString("sftp-user"),
			Host:           a.v.GetString("sftp-host"),
			Port:           a.v.GetInt("sftp-port"),
			KeyFile:        a.v.GetString("sftp-key-file"),
			Password:       a.v.GetString("sftp-password"),
			KnownHostsFile: a.v.GetString("sftp-known-hosts"),
			RemoteDir:      a.v.GetString("sftp-remote-dir"),
		})
	default:
		return nil, fmt.Errorf("unknown publish target %q, must be one of: %s", kind, publish.ExplainPublishers())
	}
}

func defaultMetrics() []string {
	return append([]string{}, report.DefaultMetrics...)
}

func defaultDefinitionFlags(flags *pflag.FlagSet) {
	def := benchmark.DefaultDefinition()
	flags.Int("iterations", def.Iterations, "The maximum number of steps per system.")
	flags.Duration("interval", def.Interval, "How often the counters are sampled.")
	flags.Int("checkpoint", def.CheckpointInterval, "Record the elapsed time every this many nodes.")
	flags.Duration("timeout", def.Timeout, "Stop driving a system after this long. 0 disables the timeout.")
	flags.StringSlice("metrics", defaultMetrics(), "The counters kept in each sample.")
}
