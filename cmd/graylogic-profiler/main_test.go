package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
	"github.com/nerrad567/gray-logic-profiler/internal/profile"
)

const testRules = `
version: test-rules-1
rules:
  - name: ts0601-generic
    vendor: "*"
    product: TS0601
    delta:
      family: light
  - name: tze284-curtain
    vendor: _TZE284_aao6qtcs
    product: TS0601
    delta:
      family: curtain
      capabilities:
        windowcoverings_state:
          source: dp:2
          parser: enum
`

// testEnv writes a config, a rule table and a database path under a temp dir.
type testEnv struct {
	dir    string
	config string
	rules  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		rules:  filepath.Join(dir, "rules.yaml"),
	}
	writeFile(t, env.rules, testRules)
	writeFile(t, env.config, fmt.Sprintf(`
database:
  path: %q
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: false
influxdb:
  enabled: false
logging:
  level: error
  format: text
  output: stderr
resolver:
  rules_file: %q
  workers: 2
  device_timeout: 10
`, filepath.Join(dir, "profiler.db"), env.rules))
	return env
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")
	if got := getConfigPath(""); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("GRAYLOGIC_CONFIG", "/etc/graylogic/profiler.yaml")
	if got := getConfigPath(""); got != "/etc/graylogic/profiler.yaml" {
		t.Errorf("getConfigPath() = %q, want the environment value", got)
	}
	if got := getConfigPath("flag.yaml"); got != "flag.yaml" {
		t.Errorf("getConfigPath(flag) = %q, want flag.yaml", got)
	}
}

func TestBatch_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	_, err := execute(t, "batch")
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("batch error = %v, want a config load error", err)
	}
}

func TestBatch_RuleTableLoadIsFatal(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.rules, "rules:\n  - name: broken\n    vendor: \"\"\n")

	_, err := execute(t, "--config", env.config, "batch")
	if !errors.Is(err, fingerprint.ErrRuleTableLoad) {
		t.Fatalf("batch error = %v, want ErrRuleTableLoad", err)
	}
}

func TestIngestBatchResolve(t *testing.T) {
	env := newTestEnv(t)
	posts := []string{
		"dp1 controls the curtain position",
		"DP 1 = curtain position (0-100)",
		"For me dp1 is the position in percent",
	}
	files := make([]string, len(posts))
	for i, text := range posts {
		files[i] = filepath.Join(env.dir, fmt.Sprintf("post-%d.txt", i))
		writeFile(t, files[i], text)
	}

	args := append([]string{"--config", env.config, "ingest",
		"--format", "text",
		"--domain", "reputable_forum",
		"--vendor", "_TZE284_aao6qtcs",
		"--product", "TS0601",
	}, files...)
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("ingest error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "total: stored 3, rejected 0") {
		t.Errorf("ingest output = %q", out)
	}

	out, err = execute(t, "--config", env.config, "batch")
	if err != nil {
		t.Fatalf("batch error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "resolved 1, failed 0") || !strings.Contains(out, "proposed") {
		t.Errorf("batch output = %q", out)
	}

	out, err = execute(t, "--config", env.config, "resolve", "--dry-run", "--json", "_TZE284_aao6qtcs", "TS0601")
	if err != nil {
		t.Fatalf("resolve error = %v\n%s", err, out)
	}
	p, err := profile.Decode([]byte(out))
	if err != nil {
		t.Fatalf("resolve output is not a profile document: %v\n%s", err, out)
	}
	if p.Fingerprint == nil || p.Fingerprint.Rule != "tze284-curtain" {
		t.Errorf("Fingerprint = %+v, want tze284-curtain", p.Fingerprint)
	}
	if b := p.CapabilityMap[device.CapWindowCoveringsSet]; b.Source != device.DatapointRef(1) {
		t.Errorf("windowcoverings_set = %+v, want dp:1", b)
	}
	if len(p.ContributingSources) != 1 {
		t.Errorf("ContributingSources = %v", p.ContributingSources)
	}
}

func TestResolve_Summary(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, "--config", env.config, "resolve", "--dry-run", "_TZ3000_unknown", "TS011F")
	if err != nil {
		t.Fatalf("resolve error = %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "_TZ3000_unknown|TS011F") || !strings.Contains(out, "tracking") {
		t.Errorf("summary = %q", out)
	}
}

func TestIngest_RejectsUnknownDomain(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(env.dir, "post.txt")
	writeFile(t, file, "dp1 is on/off")

	_, err := execute(t, "--config", env.config, "ingest", "--domain", "rumour_mill", "--vendor", "v", "--product", "p", file)
	if err == nil || !strings.Contains(err.Error(), "unknown source domain") {
		t.Errorf("ingest error = %v, want unknown source domain", err)
	}
}

func TestRulesValidateAndCompile(t *testing.T) {
	env := newTestEnv(t)
	snapshot := filepath.Join(env.dir, "rules.msgpack")

	out, err := execute(t, "rules", "validate", env.rules)
	if err != nil {
		t.Fatalf("rules validate error = %v", err)
	}
	if !strings.Contains(out, "2 rules, version test-rules-1") {
		t.Errorf("validate output = %q", out)
	}

	if _, err := execute(t, "rules", "compile", env.rules, snapshot); err != nil {
		t.Fatalf("rules compile error = %v", err)
	}
	table, err := fingerprint.LoadTable(snapshot)
	if err != nil {
		t.Fatalf("LoadTable(snapshot) error = %v", err)
	}
	if table.Version() != "test-rules-1" || table.Len() != 2 {
		t.Errorf("snapshot = %s with %d rules", table.Version(), table.Len())
	}

	if _, err := execute(t, "rules", "validate", filepath.Join(env.dir, "missing.yaml")); !errors.Is(err, fingerprint.ErrRuleTableLoad) {
		t.Errorf("validate(missing) error = %v, want ErrRuleTableLoad", err)
	}
}
