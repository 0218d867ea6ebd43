package report

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/canonroute/canonroute/internal/logging"
)

// DefaultTop is the number of entries kept in each top list.
const DefaultTop = 5

type Summary struct {
	Total         int            `json:"total"`
	Redirected    int            `json:"redirected"`
	Passed        int            `json:"passed"`
	NotFound      int            `json:"not_found"`
	Blacklisted   int            `json:"blacklisted"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	TopRedirects  []CountItem    `json:"top_redirects"`
	TopSteps      []CountItem    `json:"top_steps"`
	TopBlacklists []CountItem    `json:"top_blacklist_rules"`
	Latency       LatencySummary `json:"latency"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type LatencySummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.Decision, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(file)
}

func (r *Reader) ReadFrom(in io.Reader) ([]logging.Decision, error) {
	var decisions []logging.Decision
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var d logging.Decision
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !r.Since.IsZero() && d.Timestamp.Before(r.Since) {
			continue
		}
		decisions = append(decisions, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func Summarize(decisions []logging.Decision) Summary {
	return SummarizeTop(decisions, DefaultTop)
}

// SummarizeTop is Summarize with n entries per top list.
func SummarizeTop(decisions []logging.Decision, n int) Summary {
	if n <= 0 {
		n = DefaultTop
	}
	var summary Summary
	if len(decisions) == 0 {
		return summary
	}

	summary.Start = decisions[0].Timestamp
	summary.End = decisions[0].Timestamp

	redirectCounts := map[string]int{}
	stepCounts := map[string]int{}
	blacklistCounts := map[string]int{}
	latencies := make([]int64, 0, len(decisions))

	for _, d := range decisions {
		summary.Total++
		if d.Timestamp.Before(summary.Start) {
			summary.Start = d.Timestamp
		}
		if d.Timestamp.After(summary.End) {
			summary.End = d.Timestamp
		}

		switch d.Action {
		case logging.ActionRedirect:
			summary.Redirected++
			redirectCounts[d.Path]++
			for _, step := range d.Steps {
				stepCounts[step]++
			}
		case logging.ActionPass:
			summary.Passed++
		case logging.ActionNotFound:
			summary.NotFound++
		}

		if d.BlacklistRule != "" {
			summary.Blacklisted++
			blacklistCounts[d.BlacklistRule]++
		}

		latencies = append(latencies, d.DurationMS)
	}

	summary.TopRedirects = topCounts(redirectCounts, n)
	summary.TopSteps = topCounts(stepCounts, n)
	summary.TopBlacklists = topCounts(blacklistCounts, n)
	summary.Latency = latencySummary(latencies)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	if len(counts) == 0 {
		return nil
	}
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	slices.SortFunc(items, func(a, b CountItem) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return items[:min(n, len(items))]
}

// latencySummary picks the lower nearest rank for each percentile.
func latencySummary(values []int64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := func(p float64) float64 {
		return float64(sorted[int(float64(len(sorted)-1)*p)])
	}
	return LatencySummary{P50: rank(0.50), P95: rank(0.95), P99: rank(0.99)}
}

type line struct {
	label string
	value string
}

func totals(summary Summary) []line {
	return []line{
		{"Total", fmt.Sprint(summary.Total)},
		{"Redirected", fmt.Sprint(summary.Redirected)},
		{"Passed", fmt.Sprint(summary.Passed)},
		{"Not found", fmt.Sprint(summary.NotFound)},
		{"Blacklisted", fmt.Sprint(summary.Blacklisted)},
		{"Latency p50/p95/p99 (ms)", fmt.Sprintf("%.0f/%.0f/%.0f", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)},
	}
}

type section struct {
	title string
	items []CountItem
}

func sections(summary Summary) []section {
	return []section{
		{"Top redirected paths", summary.TopRedirects},
		{"Redirects by step", summary.TopSteps},
		{"Top blacklist rules", summary.TopBlacklists},
	}
}

func RenderText(summary Summary) string {
	var b strings.Builder
	for _, l := range totals(summary) {
		fmt.Fprintf(&b, "%s: %s\n", l.label, l.value)
	}
	for _, sec := range sections(summary) {
		if len(sec.items) == 0 {
			fmt.Fprintf(&b, "%s: none\n", sec.title)
			continue
		}
		fmt.Fprintf(&b, "%s:\n", sec.title)
		for _, item := range sec.items {
			fmt.Fprintf(&b, "- %s: %d\n", item.Key, item.Count)
		}
	}
	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# canonroute report\n\n## Totals\n\n")
	for _, l := range totals(summary) {
		fmt.Fprintf(&b, "- %s: %s\n", l.label, l.value)
	}
	b.WriteString("\n")
	for _, sec := range sections(summary) {
		fmt.Fprintf(&b, "## %s\n\n", sec.title)
		if len(sec.items) == 0 {
			b.WriteString("- none\n\n")
			continue
		}
		for _, item := range sec.items {
			fmt.Fprintf(&b, "- `%s`: %d\n", item.Key, item.Count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

// WriteOutput writes content to path, or to w when path is empty.
func WriteOutput(w io.Writer, path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(w, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}
