package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/canonroute/canonroute/internal/logging"
)

func sampleDecisions() []logging.Decision {
	return []logging.Decision{
		{Timestamp: time.Unix(0, 0), Action: logging.ActionPass, Path: "/ok/", DurationMS: 10},
		{Timestamp: time.Unix(1, 0), Action: logging.ActionRedirect, Path: "/Foo", Steps: []string{"trailing_slash", "lowercase"}, DurationMS: 1},
		{Timestamp: time.Unix(2, 0), Action: logging.ActionRedirect, Path: "/Foo", Steps: []string{"lowercase"}, DurationMS: 2},
		{Timestamp: time.Unix(3, 0), Action: logging.ActionPass, Path: "/neos/X", BlacklistRule: "/neos.*", DurationMS: 30},
		{Timestamp: time.Unix(4, 0), Action: logging.ActionNotFound, Path: "/missing/", DurationMS: 0},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleDecisions())
	if summary.Total != 5 {
		t.Fatalf("expected total 5, got %d", summary.Total)
	}
	if summary.Redirected != 2 || summary.Passed != 2 || summary.NotFound != 1 {
		t.Fatalf("unexpected action counts %+v", summary)
	}
	if summary.Blacklisted != 1 {
		t.Fatalf("expected 1 blacklisted, got %d", summary.Blacklisted)
	}
	if len(summary.TopRedirects) != 1 || summary.TopRedirects[0] != (CountItem{Key: "/Foo", Count: 2}) {
		t.Fatalf("unexpected top redirects %+v", summary.TopRedirects)
	}
	if len(summary.TopSteps) != 2 || summary.TopSteps[0] != (CountItem{Key: "lowercase", Count: 2}) {
		t.Fatalf("unexpected top steps %+v", summary.TopSteps)
	}
	if len(summary.TopBlacklists) != 1 || summary.TopBlacklists[0].Key != "/neos.*" {
		t.Fatalf("unexpected top blacklist rules %+v", summary.TopBlacklists)
	}
	if !summary.Start.Equal(time.Unix(0, 0)) || !summary.End.Equal(time.Unix(4, 0)) {
		t.Fatalf("unexpected window %v - %v", summary.Start, summary.End)
	}
	if summary.Latency.P50 != 2 || summary.Latency.P99 != 10 {
		t.Fatalf("unexpected latency %+v", summary.Latency)
	}
}

func TestSummarizeTop(t *testing.T) {
	summary := SummarizeTop(sampleDecisions(), 1)
	if len(summary.TopSteps) != 1 || summary.TopSteps[0].Key != "lowercase" {
		t.Fatalf("expected only the top step, got %+v", summary.TopSteps)
	}
	if got := SummarizeTop(sampleDecisions(), 0); len(got.TopSteps) != 2 {
		t.Fatalf("expected default top for n=0, got %+v", got.TopSteps)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.Total != 0 || summary.TopRedirects != nil {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if !strings.Contains(RenderText(summary), "Top redirected paths: none") {
		t.Fatal("expected empty text sections")
	}
}

func TestReaderSince(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewDecisionLogger(&buf)
	for _, d := range sampleDecisions() {
		if err := logger.Write(d); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	buf.WriteString("\n")

	reader := &Reader{Since: time.Unix(2, 0)}
	decisions, err := reader.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom error: %v", err)
	}
	if len(decisions) != 3 {
		t.Fatalf("expected 3 decisions since t=2, got %d", len(decisions))
	}
}

func TestReaderInvalidLine(t *testing.T) {
	reader := &Reader{}
	_, err := reader.ReadFrom(strings.NewReader("{\"action\":\"pass\"}\nnot-json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestRenderFormats(t *testing.T) {
	summary := Summarize(sampleDecisions())

	text := RenderText(summary)
	if !strings.Contains(text, "- /Foo: 2") || !strings.Contains(text, "Not found: 1") {
		t.Fatalf("unexpected text report:\n%s", text)
	}

	md := RenderMarkdown(summary)
	if !strings.HasPrefix(md, "# canonroute report") || !strings.Contains(md, "- `/neos.*`: 1") {
		t.Fatalf("unexpected markdown report:\n%s", md)
	}

	data, err := RenderJSON(summary)
	if err != nil {
		t.Fatalf("expected json render ok: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Redirected != 2 {
		t.Fatalf("expected 2 redirected, got %d", decoded.Redirected)
	}
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, "", []byte("hello")); err != nil {
		t.Fatalf("WriteOutput stdout: %v", err)
	}
	if buf.String() != "hello" {
		t.Fatalf("unexpected output %q", buf.String())
	}

	path := filepath.Join(t.TempDir(), "report.md")
	if err := WriteOutput(&buf, path, []byte("file")); err != nil {
		t.Fatalf("WriteOutput file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "file" {
		t.Fatalf("unexpected file content %q (%v)", data, err)
	}
}
